package helpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
)

// MockDispatcher is an in-memory executor that records every call
type MockDispatcher struct {
	mu sync.Mutex

	Dispatched []*dispatch.Action
	Cancelled  []*dispatch.Action
	Priorities map[string]int // action ID -> last priority sent

	// Error injection
	DispatchErr error
	CancelErr   error

	next int
}

// NewMockDispatcher creates a new mock dispatcher
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{Priorities: make(map[string]int)}
}

// Dispatch records the action and returns a sequential handle
func (m *MockDispatcher) Dispatch(ctx context.Context, action *dispatch.Action) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DispatchErr != nil {
		return "", m.DispatchErr
	}
	m.next++
	m.Dispatched = append(m.Dispatched, action)
	m.Priorities[action.ID()] = action.Priority()
	return fmt.Sprintf("upc-%d", m.next), nil
}

// Cancel records the cancellation
func (m *MockDispatcher) Cancel(ctx context.Context, action *dispatch.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.Cancelled = append(m.Cancelled, action)
	return nil
}

// SetPriority records the new priority
func (m *MockDispatcher) SetPriority(ctx context.Context, action *dispatch.Action, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Priorities[action.ID()] = priority
	return nil
}

// DispatchedTypes lists the type names dispatched so far, in order
func (m *MockDispatcher) DispatchedTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Dispatched))
	for _, a := range m.Dispatched {
		out = append(out, a.BuildType().Name)
	}
	return out
}

// Reset forgets every recorded call
func (m *MockDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatched = nil
	m.Cancelled = nil
	m.Priorities = make(map[string]int)
}
