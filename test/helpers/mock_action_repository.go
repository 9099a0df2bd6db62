package helpers

import (
	"context"
	"sync"

	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
)

// MockActionRepository keeps actions in memory, returning the stored
// instances themselves
type MockActionRepository struct {
	mu      sync.Mutex
	actions map[string]*dispatch.Action
	order   []string
	SaveErr error
}

// NewMockActionRepository creates an empty repository
func NewMockActionRepository() *MockActionRepository {
	return &MockActionRepository{actions: make(map[string]*dispatch.Action)}
}

// Save stores the action
func (m *MockActionRepository) Save(ctx context.Context, action *dispatch.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.actions[action.ID()]; !ok {
		m.order = append(m.order, action.ID())
	}
	m.actions[action.ID()] = action
	return nil
}

// FindByID returns the stored action
func (m *MockActionRepository) FindByID(ctx context.Context, sessionID, actionID string) (*dispatch.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[actionID]
	if !ok || a.SessionID() != sessionID {
		return nil, &dispatch.ErrActionNotFound{ActionID: actionID}
	}
	return a, nil
}

// FindActive returns the non-terminal actions of a session in save order
func (m *MockActionRepository) FindActive(ctx context.Context, sessionID string) ([]*dispatch.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*dispatch.Action
	for _, id := range m.order {
		a := m.actions[id]
		if a.SessionID() == sessionID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

// CountByStatus groups a session's actions by status
func (m *MockActionRepository) CountByStatus(ctx context.Context, sessionID string) (map[dispatch.ActionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[dispatch.ActionStatus]int)
	for _, a := range m.actions {
		if a.SessionID() == sessionID {
			counts[a.Status()]++
		}
	}
	return counts, nil
}

// All returns every stored action in save order
func (m *MockActionRepository) All() []*dispatch.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*dispatch.Action, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.actions[id])
	}
	return out
}
