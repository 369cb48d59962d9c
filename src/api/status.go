package api

import (
	"net/http"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewStatusModule builds the status module, which reports progress and the
// metrics recorded by the engine and the backend.
func NewStatusModule(state *State, logger *logrus.Entry) (*service.Module, error) {
	if _, ok := state.DataSource(); !ok {
		return nil, common.Errorf(common.ModuleRegistrationError, "build status module",
			"no query backend")
	}

	h := &statusHandlers{
		state:  state,
		logger: logger.WithField("module", "status"),
		now:    time.Now,
	}
	h.metrics = promhttp.HandlerFor(state.ds.Metrics(), promhttp.HandlerOpts{
		ErrorLog: h.logger,
	})

	return service.NewModule().
		Get("latest_block_height", h.GetLatestBlockHeight).
		Get("success_rate", h.GetSuccessRate).
		Get("time_since_last_decide", h.GetTimeSinceLastDecide).
		Get("metrics", h.GetMetrics), nil
}

type statusHandlers struct {
	state   *State
	logger  *logrus.Entry
	metrics http.Handler
	now     func() time.Time
}

// GetLatestBlockHeight ...
func (h *statusHandlers) GetLatestBlockHeight(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	height, err := h.state.ds.BlockHeight(r.Context())
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	service.WriteJSON(w, http.StatusOK, map[string]uint64{"height": height})
}

// GetSuccessRate ...
func (h *statusHandlers) GetSuccessRate(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	status, err := h.state.ds.Status(r.Context())
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	service.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"views":        status.ViewsFinished,
		"decides":      status.Decides,
		"success_rate": status.SuccessRate(),
	})
}

// GetTimeSinceLastDecide reports seconds since the latest decide, or null if
// nothing was decided yet.
func (h *statusHandlers) GetTimeSinceLastDecide(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	status, err := h.state.ds.Status(r.Context())
	if err != nil {
		service.WriteError(w, h.logger, err)
		return
	}

	var seconds *float64
	if !status.LastDecide.IsZero() {
		s := h.now().Sub(status.LastDecide).Seconds()
		seconds = &s
	}

	service.WriteJSON(w, http.StatusOK, map[string]*float64{"seconds": seconds})
}

// GetMetrics serves the Prometheus text exposition.
func (h *statusHandlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.state.RLock()
	defer h.state.RUnlock()

	h.metrics.ServeHTTP(w, r)
}
