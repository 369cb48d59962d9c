package node

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/metrics"
	"github.com/mosaicnetworks/sequencer/src/peers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ErrShutdown is returned by Submit after the engine stopped.
var ErrShutdown = fmt.Errorf("engine is shut down")

//Node defines a sequencing engine
type Node struct {
	state
	consensus.Broadcaster

	conf   *Config
	logger *logrus.Entry

	validator *Validator
	index     consensus.NodeIndex

	pool     transactionPool
	submitCh chan []byte

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	controlTimer *ControlTimer

	view    atomic.Uint64
	decided atomic.Uint64
	start   time.Time

	viewsCounter  prometheus.Counter
	blocksCounter prometheus.Counter
	pendingGauge  prometheus.Gauge
	blockSize     prometheus.Histogram
}

//NewNode is a factory method that returns a Node instance. It emits nothing
//until Start.
func NewNode(conf *Config,
	validator *Validator,
	index consensus.NodeIndex,
	sink metrics.Sink,
) *Node {
	sink = sink.Subgroup("consensus")

	node := Node{
		conf: conf,
		logger: conf.Logger.WithFields(logrus.Fields{
			"node_index": index,
			"moniker":    validator.Moniker,
		}),
		validator:    validator,
		index:        index,
		submitCh:     make(chan []byte, conf.SubmitBuffer),
		shutdownCh:   make(chan struct{}),
		controlTimer: NewRandomControlTimer(),

		viewsCounter:  sink.Counter("views_finished_total", "Views finished by the engine."),
		blocksCounter: sink.Counter("blocks_decided_total", "Blocks decided by the engine."),
		pendingGauge:  sink.Gauge("pending_transactions", "Transactions waiting for a block."),
		blockSize: sink.Histogram("block_size", "Transactions per decided block.",
			prometheus.ExponentialBuckets(1, 4, 8)),
	}

	node.setState(Idle)

	return &node
}

// NewInitHandle returns the constructor the bootstrap calls with its
// metrics sink. The node index is the validator's position in peerSet.
func NewInitHandle(conf *Config, validator *Validator, peerSet *peers.PeerSet) consensus.InitHandle {
	return func(sink metrics.Sink) (consensus.Engine, consensus.NodeIndex, error) {
		if err := conf.Validate(); err != nil {
			return nil, 0, err
		}
		i, ok := peerSet.IndexOf(validator.PublicKeyHex())
		if !ok {
			return nil, 0, fmt.Errorf("validator %s is not in the peer set", validator.PublicKeyHex())
		}
		index := consensus.NodeIndex(i)
		return NewNode(conf, validator, index, sink), index, nil
	}
}

// NodeIndex ...
func (n *Node) NodeIndex() consensus.NodeIndex {
	return n.index
}

// State ...
func (n *Node) State() State {
	return n.getState()
}

// Start launches the views. Cancelling ctx shuts the node down and closes
// every event stream.
func (n *Node) Start(ctx context.Context) error {
	if !n.casState(Idle, Sequencing) {
		return fmt.Errorf("cannot start node in state %s", n.getState())
	}

	n.logger.Debug("Start")
	n.start = time.Now()

	//The ControlTimer drives views. It runs fast while transactions are
	//pending and slow otherwise.
	go n.controlTimer.Run(n.heartbeat())

	n.goFunc(n.doBackgroundWork)
	n.goFunc(n.sequence)

	go func() {
		select {
		case <-ctx.Done():
			n.Shutdown()
		case <-n.shutdownCh:
		}
	}()

	return nil
}

// Submit queues a transaction. It does not block; a full queue is an error.
func (n *Node) Submit(tx []byte) error {
	if n.getState() == Shutdown {
		return ErrShutdown
	}
	select {
	case n.submitCh <- tx:
		return nil
	case <-n.shutdownCh:
		return ErrShutdown
	default:
		return fmt.Errorf("submit queue full")
	}
}

func (n *Node) heartbeat() time.Duration {
	if n.pool.len() > 0 {
		return n.conf.HeartbeatTimeout
	}
	return n.conf.SlowHeartbeatTimeout
}

func (n *Node) resetTimer() {
	if n.controlTimer.Set() {
		return
	}
	select {
	case n.controlTimer.resetCh <- n.heartbeat():
	case <-n.shutdownCh:
	}
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case t := <-n.submitCh:
			n.logger.Debug("Adding Transaction")
			n.addTransaction(t)
			n.resetTimer()
		case <-n.shutdownCh:
			return
		}
	}
}

// sequence finishes a view on every tick.
func (n *Node) sequence() {
	for {
		select {
		case <-n.controlTimer.tickCh:
			n.finishView()
			n.resetTimer()
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) finishView() {
	view := n.view.Add(1) - 1

	if txs := n.pool.take(n.conf.MaxBlockTxs); len(txs) > 0 {
		n.pendingGauge.Set(float64(n.pool.len()))

		block := consensus.NewBlock(view, time.Now(), txs)
		if err := n.validator.SignBlock(block); err != nil {
			n.logger.WithError(err).Error("Signing block")
		} else {
			n.Publish(consensus.NewDecideEvent(block, time.Now()))
			n.decided.Add(1)
			n.blocksCounter.Inc()
			n.blockSize.Observe(float64(len(txs)))

			n.logger.WithFields(logrus.Fields{
				"view": view,
				"txs":  len(txs),
				"hash": block.Hash,
			}).Debug("Decided block")
		}
	}

	n.Publish(consensus.NewViewFinishedEvent(view, time.Now()))
	n.viewsCounter.Inc()
}

func (n *Node) addTransaction(tx []byte) {
	pending := n.pool.add(tx)
	n.pendingGauge.Set(float64(pending))
}

//Shutdown shuts down the node and closes its event streams
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		wasRunning := n.getState() == Sequencing

		//Exit any non-shutdown state immediately
		n.setState(Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.waitRoutines()

		if wasRunning {
			n.controlTimer.Shutdown()
			n.logStats()
		}

		n.Close()
	})
}

//GetStats returns stats
func (n *Node) GetStats() map[string]string {
	timeElapsed := time.Since(n.start)

	var viewsPerSecond float64
	if timeElapsed > 0 {
		viewsPerSecond = float64(n.view.Load()) / timeElapsed.Seconds()
	}

	return map[string]string{
		"views":            strconv.FormatUint(n.view.Load(), 10),
		"decided_blocks":   strconv.FormatUint(n.decided.Load(), 10),
		"transaction_pool": strconv.Itoa(n.pool.len()),
		"views_per_second": strconv.FormatFloat(viewsPerSecond, 'f', 2, 64),
		"node_index":       strconv.FormatUint(uint64(n.index), 10),
		"state":            n.getState().String(),
		"moniker":          n.validator.Moniker,
	}
}

func (n *Node) logStats() {
	stats := n.GetStats()

	fields := logrus.Fields{}
	for k, v := range stats {
		fields[k] = v
	}
	n.logger.WithFields(fields).Debug("Stats")
}
