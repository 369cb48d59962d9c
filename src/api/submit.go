package api

import (
	"io"
	"net/http"

	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/service"
	"github.com/sirupsen/logrus"
)

// MaxTxBytes bounds the size of a submitted transaction.
const MaxTxBytes = 1 << 20

// SubmitResponse ...
type SubmitResponse struct {
	Hash string `json:"hash"`
}

// NewSubmitModule builds the submit module: POST submit with the raw
// transaction as body.
func NewSubmitModule(state *State, logger *logrus.Entry) *service.Module {
	h := &submitHandlers{
		state:  state,
		logger: logger.WithField("module", "submit"),
	}
	return service.NewModule().Post("submit", h.Submit)
}

type submitHandlers struct {
	state  *State
	logger *logrus.Entry
}

// Submit ...
func (h *submitHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	tx, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxTxBytes))
	if err != nil {
		service.BadRequest(w, err.Error())
		return
	}
	if len(tx) == 0 {
		service.BadRequest(w, "empty transaction")
		return
	}

	h.state.RLock()
	err = h.state.Handle().Submit(tx)
	h.state.RUnlock()

	if err != nil {
		h.logger.WithError(err).Warn("Submitting transaction")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	service.WriteJSON(w, http.StatusOK, SubmitResponse{Hash: consensus.TxHash(tx)})
}
