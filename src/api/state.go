package api

import (
	"context"
	"sync"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/datasource"
)

// State is the single shared state of a node: the consensus handle and, when
// a query backend is configured, the data source.
type State struct {
	sync.RWMutex

	handle *consensus.Handle
	ds     datasource.DataSource
}

// NewMinimalState returns a State without a query backend.
func NewMinimalState(handle *consensus.Handle) *State {
	return &State{handle: handle}
}

// NewQueryState returns a State over ds.
func NewQueryState(ds datasource.DataSource, handle *consensus.Handle) *State {
	return &State{
		handle: handle,
		ds:     ds,
	}
}

// Handle ...
func (s *State) Handle() *consensus.Handle {
	return s.handle
}

// DataSource returns the backend, or false in minimal mode.
func (s *State) DataSource() (datasource.DataSource, bool) {
	return s.ds, s.ds != nil
}

// Apply applies ev to the backend under the write lock.
func (s *State) Apply(ctx context.Context, ev consensus.Event) error {
	if s.ds == nil {
		return common.Errorf(common.EventPipelineError, "apply", "no query backend")
	}

	s.Lock()
	defer s.Unlock()

	return s.ds.Apply(ctx, ev)
}
