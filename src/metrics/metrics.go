// Package metrics provides the sink through which the sequencing engine
// reports its counters. The query backend owns the sink so that the status
// module can expose whatever the engine records.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Sink creates named instruments. Implementations return a usable
// instrument even when the name is already taken.
type Sink interface {
	Counter(name, help string) prometheus.Counter
	Gauge(name, help string) prometheus.Gauge
	Histogram(name, help string, buckets []float64) prometheus.Histogram
	Subgroup(name string) Sink
}

// PrometheusSink registers instruments in a prometheus Registry.
type PrometheusSink struct {
	reg       *prometheus.Registry
	namespace string
	subsystem string
	logger    *logrus.Entry
}

// NewPrometheusSink returns a sink over reg. Metric names are prefixed with
// namespace. Instruments the registry rejects are logged to logger and
// remain usable, but are not exposed.
func NewPrometheusSink(reg *prometheus.Registry, namespace string, logger *logrus.Entry) *PrometheusSink {
	return &PrometheusSink{
		reg:       reg,
		namespace: namespace,
		logger:    logger,
	}
}

// Registry returns the underlying registry, which is also a
// prometheus.Gatherer.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.reg
}

// Counter ...
func (s *PrometheusSink) Counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: s.namespace,
		Subsystem: s.subsystem,
		Name:      name,
		Help:      help,
	})
	return registered(s, c)
}

// Gauge ...
func (s *PrometheusSink) Gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: s.namespace,
		Subsystem: s.subsystem,
		Name:      name,
		Help:      help,
	})
	return registered(s, g)
}

// Histogram ...
func (s *PrometheusSink) Histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: s.namespace,
		Subsystem: s.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	return registered(s, h)
}

// Subgroup returns a sink sharing the registry whose metric names carry an
// additional component.
func (s *PrometheusSink) Subgroup(name string) Sink {
	sub := name
	if s.subsystem != "" {
		sub = s.subsystem + "_" + name
	}
	return &PrometheusSink{
		reg:       s.reg,
		namespace: s.namespace,
		subsystem: sub,
		logger:    s.logger,
	}
}

// registered registers c and returns the instrument to use, which is the
// already registered one when c duplicates it.
func registered[T prometheus.Collector](s *PrometheusSink, c T) T {
	if existing, ok := s.register(c).(T); ok {
		return existing
	}
	s.logger.Warn("Metric registered with another type")
	return c
}

// register adds c to the registry, or returns the collector already
// registered under the same description.
func (s *PrometheusSink) register(c prometheus.Collector) prometheus.Collector {
	if err := s.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		s.logger.WithError(err).Warn("Metric not registered")
	}
	return c
}

// NoMetrics discards everything. It is handed to the engine when no query
// backend is configured.
type NoMetrics struct{}

// Counter ...
func (NoMetrics) Counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

// Gauge ...
func (NoMetrics) Gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

// Histogram ...
func (NoMetrics) Histogram(name, help string, buckets []float64) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

// Subgroup ...
func (n NoMetrics) Subgroup(string) Sink {
	return n
}
