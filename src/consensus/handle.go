package consensus

import (
	"context"
	"sync"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/metrics"
)

// NodeIndex is the position of this node in the membership set.
type NodeIndex uint64

// Engine is a consensus protocol instance. Constructing an Engine must not
// emit events; emission begins with Start.
type Engine interface {
	// Subscribe returns a stream of every event emitted after the call.
	Subscribe() *EventStream
	// Start launches the protocol. It returns once the engine is running;
	// cancelling ctx shuts the engine down and closes its streams.
	Start(ctx context.Context) error
	// Submit enqueues a transaction for sequencing.
	Submit(tx []byte) error
}

// InitHandle constructs an engine reporting to the given metrics sink. It
// is supplied by the caller of the bootstrap and invoked exactly once.
type InitHandle func(sink metrics.Sink) (Engine, NodeIndex, error)

// Handle is the shared reference to the live engine.
type Handle struct {
	sync.RWMutex

	engine Engine
	index  NodeIndex

	startOnce sync.Once
	started   bool
	startErr  error
}

// NewHandle ...
func NewHandle(engine Engine, index NodeIndex) *Handle {
	return &Handle{
		engine: engine,
		index:  index,
	}
}

// NodeIndex ...
func (h *Handle) NodeIndex() NodeIndex {
	return h.index
}

// Submit forwards a transaction to the engine.
func (h *Handle) Submit(tx []byte) error {
	h.RLock()
	defer h.RUnlock()
	return h.engine.Submit(tx)
}

// Started reports whether consensus was started.
func (h *Handle) Started() bool {
	h.RLock()
	defer h.RUnlock()
	return h.started
}

// Subscribe obtains the engine's event stream and the Starter that may
// start it. It fails once consensus has started, since earlier events would
// be lost.
func (h *Handle) Subscribe() (*EventStream, *Starter, error) {
	h.Lock()
	defer h.Unlock()

	if h.started {
		return nil, nil, common.Errorf(common.EventPipelineError, "subscribe",
			"consensus already started")
	}

	return h.engine.Subscribe(), &Starter{handle: h}, nil
}

// WithoutEvents returns a Starter for a node that never consumes events.
func (h *Handle) WithoutEvents() *Starter {
	return &Starter{handle: h}
}

// Starter starts consensus. Only the first call, across all Starters of a
// Handle, has any effect.
type Starter struct {
	handle *Handle
}

// StartConsensus starts the engine. Cancelling ctx later shuts it down.
func (s *Starter) StartConsensus(ctx context.Context) error {
	h := s.handle
	h.startOnce.Do(func() {
		h.Lock()
		h.started = true
		h.Unlock()

		if err := h.engine.Start(ctx); err != nil {
			h.startErr = common.NewNodeErr(common.RuntimeTaskError, "start consensus", err)
		}
	})
	return h.startErr
}
