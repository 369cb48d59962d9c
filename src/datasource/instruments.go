package datasource

import (
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MetricsNamespace prefixes every metric a backend exposes.
const MetricsNamespace = "sequencer"

// Instruments holds the metrics registry owned by a backend. Backends embed
// it to satisfy PopulateMetrics and Metrics.
type Instruments struct {
	sink    *metrics.PrometheusSink
	applied *prometheus.CounterVec
}

// NewInstruments creates a fresh registry with the backend's own counters.
func NewInstruments(backend string, logger *logrus.Entry) *Instruments {
	reg := prometheus.NewRegistry()
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   "datasource",
		Name:        "events_applied_total",
		Help:        "Consensus events applied to the query backend.",
		ConstLabels: prometheus.Labels{"backend": backend},
	}, []string{"type"})
	reg.MustRegister(applied)

	return &Instruments{
		sink:    metrics.NewPrometheusSink(reg, MetricsNamespace, logger),
		applied: applied,
	}
}

// PopulateMetrics ...
func (i *Instruments) PopulateMetrics() metrics.Sink {
	return i.sink
}

// Metrics ...
func (i *Instruments) Metrics() prometheus.Gatherer {
	return i.sink.Registry()
}

// ObserveApplied counts an applied event.
func (i *Instruments) ObserveApplied(ev consensus.Event) {
	i.applied.WithLabelValues(ev.Type.String()).Inc()
}
