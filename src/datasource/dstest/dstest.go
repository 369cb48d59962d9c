// Package dstest is a conformance suite shared by the query backends.
package dstest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty backend. The suite closes it.
type Opener func(t *testing.T) datasource.DataSource

// DecideEvent builds a signed Decide event for view with the given
// transactions.
func DecideEvent(t testing.TB, key *btcec.PrivateKey, view uint64, ts time.Time, txs ...string) consensus.Event {
	t.Helper()

	raw := make([][]byte, len(txs))
	for i, tx := range txs {
		raw[i] = []byte(tx)
	}

	block := consensus.NewBlock(view, ts, raw)
	require.NoError(t, block.Sign(key))
	return consensus.NewDecideEvent(block, ts)
}

// Run executes the suite against the backend returned by open.
func Run(t *testing.T, open Opener) {
	t.Run("Empty", func(t *testing.T) { testEmpty(t, open) })
	t.Run("ApplySequence", func(t *testing.T) { testApplySequence(t, open) })
	t.Run("DoubleApply", func(t *testing.T) { testDoubleApply(t, open) })
	t.Run("Metrics", func(t *testing.T) { testMetrics(t, open) })
}

// Snapshot reads everything observable from ds for the given heights, so
// that two backends fed the same events can be compared.
func Snapshot(t testing.TB, ds datasource.DataSource) map[string]interface{} {
	t.Helper()
	ctx := context.Background()

	res := map[string]interface{}{}

	height, err := ds.BlockHeight(ctx)
	require.NoError(t, err)
	res["height"] = height

	for h := uint64(0); h < height; h++ {
		b, err := ds.GetBlock(ctx, h)
		require.NoError(t, err)
		res[fmt.Sprintf("block/%d", h)] = *b

		byHash, err := ds.GetBlockByHash(ctx, b.Hash)
		require.NoError(t, err)
		res[fmt.Sprintf("blockhash/%s", b.Hash)] = byHash.Height

		for _, tx := range b.TransactionRecords() {
			rec, err := ds.GetTransaction(ctx, tx.Hash)
			require.NoError(t, err)
			res[fmt.Sprintf("tx/%s", tx.Hash)] = *rec
		}
	}

	status, err := ds.Status(ctx)
	require.NoError(t, err)
	res["status/views"] = status.ViewsFinished
	res["status/decides"] = status.Decides
	res["status/last_decide"] = status.LastDecide.UnixNano()

	return res
}

func testEmpty(t *testing.T, open Opener) {
	ds := open(t)
	defer ds.Close()
	ctx := context.Background()

	height, err := ds.BlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)

	_, err = ds.GetBlock(ctx, 0)
	assert.True(t, common.IsStore(err, common.KeyNotFound), "%v", err)

	_, err = ds.GetBlockByHash(ctx, "0XABCD")
	assert.True(t, common.IsStore(err, common.KeyNotFound), "%v", err)

	_, err = ds.GetTransaction(ctx, "abcd")
	assert.True(t, common.IsStore(err, common.KeyNotFound), "%v", err)

	status, err := ds.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, datasource.Status{}.ViewsFinished, status.ViewsFinished)
	assert.True(t, status.LastDecide.IsZero())
	assert.Equal(t, float64(0), status.SuccessRate())
}

func testApplySequence(t *testing.T, open Opener) {
	ds := open(t)
	defer ds.Close()
	ctx := context.Background()

	key, err := keys.GenerateKey()
	require.NoError(t, err)

	t0 := time.Unix(1700000000, 0)
	d1 := DecideEvent(t, key, 1, t0, "tx1", "tx2")
	d2 := DecideEvent(t, key, 3, t0.Add(time.Second), "tx3")

	events := []consensus.Event{
		consensus.NewViewFinishedEvent(0, t0),
		d1,
		consensus.NewViewFinishedEvent(1, t0),
		consensus.NewViewFinishedEvent(2, t0),
		d2,
		consensus.NewViewFinishedEvent(3, t0),
	}
	for _, ev := range events {
		require.NoError(t, ds.Apply(ctx, ev))
	}

	height, err := ds.BlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), height)

	b0, err := ds.GetBlock(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b0.Height)
	assert.Equal(t, uint64(1), b0.View)
	assert.Equal(t, d1.Block.Hash, b0.Hash)
	assert.Equal(t, d1.Block.Signer, b0.Signer)
	assert.Equal(t, d1.Block.Signature, b0.Signature)
	assert.Equal(t, [][]byte{[]byte("tx1"), []byte("tx2")}, b0.Transactions)

	b1, err := ds.GetBlockByHash(ctx, d2.Block.Hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b1.Height)

	// hash lookups ignore case and prefix
	b1, err = ds.GetBlockByHash(ctx, d2.Block.Hash[2:])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b1.Height)

	tx, err := ds.GetTransaction(ctx, consensus.TxHash([]byte("tx2")))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tx.BlockHeight)
	assert.Equal(t, 1, tx.Index)
	assert.Equal(t, []byte("tx2"), tx.Payload)

	tx, err = ds.GetTransaction(ctx, "0X"+consensus.TxHash([]byte("tx3")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tx.BlockHeight)

	_, err = ds.GetBlock(ctx, 2)
	assert.True(t, common.IsStore(err, common.KeyNotFound))

	status, err := ds.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.BlockHeight)
	assert.Equal(t, uint64(4), status.ViewsFinished)
	assert.Equal(t, uint64(2), status.Decides)
	assert.Equal(t, 0.5, status.SuccessRate())
	assert.Equal(t, d2.Timestamp.UnixNano(), status.LastDecide.UnixNano())
}

func testDoubleApply(t *testing.T, open Opener) {
	ds := open(t)
	defer ds.Close()
	ctx := context.Background()

	key, err := keys.GenerateKey()
	require.NoError(t, err)

	d := DecideEvent(t, key, 1, time.Unix(1700000000, 0), "dup")
	require.NoError(t, ds.Apply(ctx, d))
	require.NoError(t, ds.Apply(ctx, d))

	height, err := ds.BlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), height, "applying twice stores twice")

	b0, err := ds.GetBlock(ctx, 0)
	require.NoError(t, err)
	b1, err := ds.GetBlock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b0.Hash, b1.Hash)

	byHash, err := ds.GetBlockByHash(ctx, d.Block.Hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), byHash.Height)

	tx, err := ds.GetTransaction(ctx, consensus.TxHash([]byte("dup")))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tx.BlockHeight)

	status, err := ds.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.Decides)
}

func testMetrics(t *testing.T, open Opener) {
	ds := open(t)
	defer ds.Close()

	sink := ds.PopulateMetrics()
	require.NotNil(t, sink)
	sink.Subgroup("consensus").Counter("views_total", "views").Add(3)

	require.NoError(t, ds.Apply(context.Background(),
		consensus.NewViewFinishedEvent(0, time.Now())))

	families, err := ds.Metrics().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if m.GetCounter() != nil {
				found[f.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(3), found["sequencer_consensus_views_total"])
	assert.Equal(t, float64(1), found["sequencer_datasource_events_applied_total"])
}
