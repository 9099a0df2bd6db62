package helpers

import (
	"context"
	"sync"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
)

// MockPlannerLogRepository is an in-memory PlannerLogRepository for testing.
// It keeps every entry; deduplication belongs to the real repository.
type MockPlannerLogRepository struct {
	mu     sync.Mutex
	Logs   map[string][]persistence.PlannerLogEntry // key: session_id
	LogErr error
}

// NewMockPlannerLogRepository creates a new mock planner log repository
func NewMockPlannerLogRepository() *MockPlannerLogRepository {
	return &MockPlannerLogRepository{
		Logs: make(map[string][]persistence.PlannerLogEntry),
	}
}

// Log writes a log entry (in-memory only for testing)
func (m *MockPlannerLogRepository) Log(ctx context.Context, sessionID, message, level string, metadata map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LogErr != nil {
		return m.LogErr
	}
	m.Logs[sessionID] = append(m.Logs[sessionID], persistence.PlannerLogEntry{
		ID:        len(m.Logs[sessionID]) + 1,
		SessionID: sessionID,
		Message:   message,
		Level:     level,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})
	return nil
}

// GetLogs retrieves logs for a session, newest first
func (m *MockPlannerLogRepository) GetLogs(ctx context.Context, sessionID string, limit, offset int, level *string, since *time.Time) ([]persistence.PlannerLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := m.Logs[sessionID]
	filtered := make([]persistence.PlannerLogEntry, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		log := logs[i]
		if level != nil && log.Level != *level {
			continue
		}
		if since != nil && !log.Timestamp.After(*since) {
			continue
		}
		filtered = append(filtered, log)
	}

	if offset >= len(filtered) {
		return []persistence.PlannerLogEntry{}, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Messages returns the messages logged for a session in log order
func (m *MockPlannerLogRepository) Messages(sessionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Logs[sessionID]))
	for _, log := range m.Logs[sessionID] {
		out = append(out, log.Message)
	}
	return out
}
