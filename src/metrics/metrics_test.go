package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger, _ := test.NewNullLogger()
	sink := NewPrometheusSink(reg, "sequencer", logrus.NewEntry(logger))

	c := sink.Counter("views", "views finished")
	c.Inc()
	c.Inc()

	// same name returns the registered counter
	again := sink.Counter("views", "views finished")
	again.Inc()
	assert.Equal(t, float64(3), testutil.ToFloat64(c))

	g := sink.Subgroup("engine").Gauge("pending", "pending txs")
	g.Set(7)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := []string{}
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{"sequencer_views", "sequencer_engine_pending"}, names)
}

func TestPrometheusSinkRejected(t *testing.T) {
	reg := prometheus.NewRegistry()
	logger, hook := test.NewNullLogger()
	sink := NewPrometheusSink(reg, "sequencer", logrus.NewEntry(logger))

	sink.Counter("views", "views finished").Inc()

	// same name, other help: the registry refuses it
	g := sink.Gauge("views", "something else")
	g.Set(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(g))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Metric not registered", hook.LastEntry().Message)

	// same description, other type
	hook.Reset()
	h := sink.Histogram("views", "views finished", prometheus.DefBuckets)
	h.Observe(1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Metric registered with another type", hook.LastEntry().Message)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(sink.Counter("views", "views finished")))
}

func TestNoMetrics(t *testing.T) {
	var sink Sink = NoMetrics{}
	c := sink.Subgroup("x").Counter("c", "c")
	c.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(c))
	sink.Histogram("h", "h", prometheus.DefBuckets).Observe(1)
}
