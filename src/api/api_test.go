package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/mosaicnetworks/sequencer/src/datasource/dstest"
	"github.com/mosaicnetworks/sequencer/src/datasource/fsstore"
	"github.com/mosaicnetworks/sequencer/src/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *consensus.MockEngine
	state  *State
	h      http.Handler
}

func newQueryFixture(t *testing.T) *fixture {
	t.Helper()
	logger := common.NewTestEntry(t, common.TestLogLevel)

	ds, err := fsstore.Create(config.FS{StoragePath: filepath.Join(t.TempDir(), "store")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	engine := consensus.NewMockEngine()
	state := NewQueryState(ds, consensus.NewHandle(engine, 0))

	app := service.NewApp(logger)
	availability, err := NewAvailabilityModule(state, logger)
	require.NoError(t, err)
	status, err := NewStatusModule(state, logger)
	require.NoError(t, err)
	require.NoError(t, app.RegisterModule("availability", availability))
	require.NoError(t, app.RegisterModule("status", status))
	require.NoError(t, app.RegisterModule("submit", NewSubmitModule(state, logger)))

	return &fixture{engine: engine, state: state, h: app.Handler()}
}

func (f *fixture) do(method, path string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(body)))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestSubmit(t *testing.T) {
	f := newQueryFixture(t)

	rec := f.do(http.MethodPost, "/submit/submit", []byte("hello"))
	var resp SubmitResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, consensus.TxHash([]byte("hello")), resp.Hash)
	assert.Equal(t, [][]byte{[]byte("hello")}, f.engine.Submitted())

	rec = f.do(http.MethodPost, "/submit/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/submit/submit", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAvailability(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	key, err := keys.GenerateKey()
	require.NoError(t, err)
	ev := dstest.DecideEvent(t, key, 4, time.Now(), "one", "two")
	require.NoError(t, f.state.Apply(ctx, ev))

	var block datasource.BlockRecord
	decodeJSON(t, f.do(http.MethodGet, "/availability/block/0", nil), &block)
	assert.Equal(t, ev.Block.Hash, block.Hash)
	assert.Equal(t, uint64(4), block.View)

	decodeJSON(t, f.do(http.MethodGet, "/availability/block/hash/"+strings.ToLower(ev.Block.Hash), nil), &block)
	assert.Equal(t, uint64(0), block.Height)

	var tx datasource.TransactionRecord
	decodeJSON(t, f.do(http.MethodGet, "/availability/transaction/"+consensus.TxHash([]byte("two")), nil), &tx)
	assert.Equal(t, 1, tx.Index)
	assert.Equal(t, []byte("two"), tx.Payload)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/availability/block/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/availability/block/x", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/availability/transaction/ab", nil).Code)
}

func TestStatus(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	var seconds map[string]*float64
	decodeJSON(t, f.do(http.MethodGet, "/status/time_since_last_decide", nil), &seconds)
	assert.Nil(t, seconds["seconds"])

	key, err := keys.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, f.state.Apply(ctx, consensus.NewViewFinishedEvent(0, time.Now())))
	require.NoError(t, f.state.Apply(ctx, dstest.DecideEvent(t, key, 1, time.Now().Add(-time.Minute), "a")))
	require.NoError(t, f.state.Apply(ctx, consensus.NewViewFinishedEvent(1, time.Now())))

	var height map[string]uint64
	decodeJSON(t, f.do(http.MethodGet, "/status/latest_block_height", nil), &height)
	assert.Equal(t, uint64(1), height["height"])

	var rate map[string]float64
	decodeJSON(t, f.do(http.MethodGet, "/status/success_rate", nil), &rate)
	assert.Equal(t, 0.5, rate["success_rate"])

	decodeJSON(t, f.do(http.MethodGet, "/status/time_since_last_decide", nil), &seconds)
	require.NotNil(t, seconds["seconds"])
	assert.InDelta(t, 60, *seconds["seconds"], 5)

	rec := f.do(http.MethodGet, "/status/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sequencer_datasource_events_applied_total")
}

func TestQueryModulesNeedBackend(t *testing.T) {
	logger := common.NewTestEntry(t, common.TestLogLevel)
	state := NewMinimalState(consensus.NewHandle(consensus.NewMockEngine(), 0))

	_, err := NewAvailabilityModule(state, logger)
	assert.True(t, common.IsKind(err, common.ModuleRegistrationError))

	_, err = NewStatusModule(state, logger)
	assert.True(t, common.IsKind(err, common.ModuleRegistrationError))

	err = state.Apply(context.Background(), consensus.NewViewFinishedEvent(0, time.Now()))
	assert.True(t, common.IsKind(err, common.EventPipelineError))
}
