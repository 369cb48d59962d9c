package consensus

import (
	"context"
	"sync"
)

// MockEngine is an Engine driven by hand. Tests publish events with Emit.
type MockEngine struct {
	Broadcaster

	mu        sync.Mutex
	started   int
	submitted [][]byte
	startErr  error
	ctx       context.Context
}

// NewMockEngine ...
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// FailStart makes Start return err.
func (m *MockEngine) FailStart(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// Start ...
func (m *MockEngine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
	m.ctx = ctx
	if m.startErr != nil {
		return m.startErr
	}
	go func() {
		<-ctx.Done()
		m.Close()
	}()
	return nil
}

// Submit ...
func (m *MockEngine) Submit(tx []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, tx)
	return nil
}

// Emit publishes ev to all subscribers.
func (m *MockEngine) Emit(ev Event) {
	m.Publish(ev)
}

// StartCount ...
func (m *MockEngine) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Submitted returns the transactions received so far.
func (m *MockEngine) Submitted() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.submitted...)
}
