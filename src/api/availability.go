package api

import (
	"net/http"
	"strconv"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/service"
	"github.com/sirupsen/logrus"
)

// NewAvailabilityModule builds the availability module, which serves stored
// blocks and transactions.
func NewAvailabilityModule(state *State, logger *logrus.Entry) (*service.Module, error) {
	if _, ok := state.DataSource(); !ok {
		return nil, common.Errorf(common.ModuleRegistrationError, "build availability module",
			"no query backend")
	}

	h := &availabilityHandlers{
		state:  state,
		logger: logger.WithField("module", "availability"),
	}
	return service.NewModule().
		Get("block/{height}", h.GetBlock).
		Get("block/hash/{hash}", h.GetBlockByHash).
		Get("transaction/{hash}", h.GetTransaction), nil
}

type availabilityHandlers struct {
	state  *State
	logger *logrus.Entry
}

// GetBlock ...
func (h *availabilityHandlers) GetBlock(w http.ResponseWriter, r *http.Request) {
	param := r.PathValue("height")

	height, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		h.logger.WithError(err).Debugf("Parsing height parameter %s", param)
		service.BadRequest(w, err.Error())
		return
	}

	h.state.RLock()
	defer h.state.RUnlock()

	block, err := h.state.ds.GetBlock(r.Context(), height)
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	service.WriteJSON(w, http.StatusOK, block)
}

// GetBlockByHash ...
func (h *availabilityHandlers) GetBlockByHash(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	block, err := h.state.ds.GetBlockByHash(r.Context(), r.PathValue("hash"))
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	service.WriteJSON(w, http.StatusOK, block)
}

// GetTransaction ...
func (h *availabilityHandlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	tx, err := h.state.ds.GetTransaction(r.Context(), r.PathValue("hash"))
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	service.WriteJSON(w, http.StatusOK, tx)
}
