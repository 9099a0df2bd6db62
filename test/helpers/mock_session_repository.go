package helpers

import (
	"context"
	"sort"
	"sync"

	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// MockSessionRepository keeps sessions in memory
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	Saves    int
}

// NewMockSessionRepository creates an empty repository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*session.Session)}
}

func (m *MockSessionRepository) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	m.Saves++
	return nil
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, shared.NewNotFoundError("session", id)
	}
	return s, nil
}

func (m *MockSessionRepository) List(ctx context.Context) ([]*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

// MockTickRepository keeps tick records in memory
type MockTickRepository struct {
	mu      sync.Mutex
	Records []session.TickRecord
}

// NewMockTickRepository creates an empty repository
func NewMockTickRepository() *MockTickRepository {
	return &MockTickRepository{}
}

func (m *MockTickRepository) Append(ctx context.Context, record session.TickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return nil
}

func (m *MockTickRepository) Recent(ctx context.Context, sessionID string, limit int) ([]session.TickRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.TickRecord
	for i := len(m.Records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.Records[i].SessionID == sessionID {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}
