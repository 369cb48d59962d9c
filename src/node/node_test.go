package node

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/metrics"
	"github.com/mosaicnetworks/sequencer/src/peers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, moniker string) *Validator {
	t.Helper()
	key, err := keys.GenerateKey()
	require.NoError(t, err)
	return NewValidator(key, moniker)
}

func nextEvent(t *testing.T, s *consensus.EventStream) consensus.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev, err := s.Next(ctx)
	require.NoError(t, err)
	return ev
}

func TestNodeDecidesSubmittedTransactions(t *testing.T) {
	conf := TestConfig(t)
	conf.MaxBlockTxs = 2
	validator := newTestValidator(t, "alice")

	reg := prometheus.NewRegistry()
	node := NewNode(conf, validator, 0, metrics.NewPrometheusSink(reg, "sequencer", conf.Logger))
	stream := node.Subscribe()

	// queued before start
	for i := 0; i < 3; i++ {
		require.NoError(t, node.Submit([]byte(fmt.Sprintf("tx%d", i))))
	}
	assert.Equal(t, 0, stream.Len(), "no events before start")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, node.Start(ctx))
	assert.Equal(t, Sequencing, node.State())
	assert.Error(t, node.Start(ctx))

	decided := [][]byte{}
	var seq uint64
	for len(decided) < 3 {
		ev := nextEvent(t, stream)
		assert.Equal(t, seq, ev.Seq)
		seq++

		switch ev.Type {
		case consensus.Decide:
			assert.LessOrEqual(t, len(ev.Block.Transactions()), 2)
			assert.Equal(t, validator.PublicKeyHex(), ev.Block.Signer)
			ok, err := ev.Block.Verify()
			require.NoError(t, err)
			assert.True(t, ok)
			decided = append(decided, ev.Block.Transactions()...)

			// the view of a decide is finished right after
			vf := nextEvent(t, stream)
			seq++
			assert.Equal(t, consensus.ViewFinished, vf.Type)
			assert.Equal(t, ev.View, vf.View)
		}
	}

	assert.Equal(t, [][]byte{[]byte("tx0"), []byte("tx1"), []byte("tx2")}, decided)
	assert.GreaterOrEqual(t, testutil.ToFloat64(node.blocksCounter), float64(2))

	cancel()
	for {
		_, err := stream.Next(context.Background())
		if errors.Is(err, consensus.ErrStreamClosed) {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, Shutdown, node.State())
	assert.ErrorIs(t, node.Submit([]byte("late")), ErrShutdown)
}

func TestNodeEmptyViews(t *testing.T) {
	node := NewNode(TestConfig(t), newTestValidator(t, "bob"), 0, metrics.NoMetrics{})
	stream := node.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, node.Start(ctx))

	for i := uint64(0); i < 3; i++ {
		ev := nextEvent(t, stream)
		assert.Equal(t, consensus.ViewFinished, ev.Type)
		assert.Equal(t, i, ev.View)
	}

	node.Shutdown()
	node.Shutdown()
	assert.Equal(t, "Shutdown", node.GetStats()["state"])
}

func TestNodeShutdownBeforeStart(t *testing.T) {
	node := NewNode(TestConfig(t), newTestValidator(t, "carol"), 0, metrics.NoMetrics{})
	stream := node.Subscribe()

	node.Shutdown()

	_, err := stream.Next(context.Background())
	assert.ErrorIs(t, err, consensus.ErrStreamClosed)
	assert.Error(t, node.Start(context.Background()))
}

func TestSubmitQueueFull(t *testing.T) {
	conf := TestConfig(t)
	conf.SubmitBuffer = 1
	node := NewNode(conf, newTestValidator(t, "dave"), 0, metrics.NoMetrics{})

	require.NoError(t, node.Submit([]byte("a")))
	assert.Error(t, node.Submit([]byte("b")))
}

func TestInitHandleNodeIndex(t *testing.T) {
	alice := newTestValidator(t, "alice")
	bob := newTestValidator(t, "bob")
	stranger := newTestValidator(t, "stranger")

	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer(alice.PublicKeyHex(), "", "alice"),
		peers.NewPeer(bob.PublicKeyHex(), "", "bob"),
	})

	engine, index, err := NewInitHandle(TestConfig(t), bob, peerSet)(metrics.NoMetrics{})
	require.NoError(t, err)
	assert.Equal(t, consensus.NodeIndex(1), index)
	assert.Equal(t, index, engine.(*Node).NodeIndex())

	_, _, err = NewInitHandle(TestConfig(t), stranger, peerSet)(metrics.NoMetrics{})
	assert.Error(t, err)
}

func TestInitHandleRejectsBadTimers(t *testing.T) {
	alice := newTestValidator(t, "alice")
	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer(alice.PublicKeyHex(), "", "alice"),
	})

	cases := map[string]func(*Config){
		"zero heartbeat":          func(c *Config) { c.HeartbeatTimeout = 0 },
		"zero slow heartbeat":     func(c *Config) { c.SlowHeartbeatTimeout = 0 },
		"negative heartbeat":      func(c *Config) { c.HeartbeatTimeout = -time.Millisecond },
		"negative slow heartbeat": func(c *Config) { c.SlowHeartbeatTimeout = -time.Second },
		"empty blocks":            func(c *Config) { c.MaxBlockTxs = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			conf := TestConfig(t)
			mutate(conf)

			engine, _, err := NewInitHandle(conf, alice, peerSet)(metrics.NoMetrics{})
			require.Error(t, err)
			assert.Nil(t, engine)
			assert.True(t, common.IsKind(err, common.ConfigError), err.Error())
		})
	}
}

func TestRandomControlTimerWithoutTimeout(t *testing.T) {
	timer := NewRandomControlTimer()
	go timer.Run(0)
	defer timer.Shutdown()

	select {
	case <-timer.tickCh:
		t.Fatal("unexpected tick")
	case <-time.After(20 * time.Millisecond):
	}
	assert.False(t, timer.Set())

	timer.resetCh <- -time.Millisecond
	select {
	case <-timer.tickCh:
		t.Fatal("unexpected tick")
	case <-time.After(20 * time.Millisecond):
	}
	assert.False(t, timer.Set())
}

func TestControlTimer(t *testing.T) {
	timer := NewControlTimer(func(d time.Duration) <-chan time.Time {
		return time.After(d)
	})
	go timer.Run(time.Millisecond)

	select {
	case <-timer.tickCh:
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}

	timer.resetCh <- time.Hour
	select {
	case <-timer.tickCh:
		t.Fatal("unexpected tick")
	case <-time.After(20 * time.Millisecond):
	}

	timer.stopCh <- struct{}{}
	timer.Shutdown()
}
