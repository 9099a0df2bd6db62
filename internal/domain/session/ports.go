package session

import (
	"context"
	"time"
)

// TickRecord summarizes one planning tick for history and the plan feed
type TickRecord struct {
	SessionID     string
	Frame         int
	PlanLength    int
	Dispatched    int
	Cancelled     int
	Reprioritized int
	MaxGasWorkers int
	Aborted       bool
	Duration      time.Duration
	RecordedAt    time.Time
}

// SessionRepository defines persistence operations for sessions
type SessionRepository interface {
	// Save creates or updates a session
	Save(ctx context.Context, s *Session) error

	// FindByID retrieves a session
	FindByID(ctx context.Context, id string) (*Session, error)

	// List retrieves every session, newest first
	List(ctx context.Context) ([]*Session, error)
}

// TickRepository stores tick history
type TickRepository interface {
	// Append stores one tick record
	Append(ctx context.Context, record TickRecord) error

	// Recent returns up to limit records of a session, newest first
	Recent(ctx context.Context, sessionID string, limit int) ([]TickRecord, error)
}
