package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// SessionRepositoryGORM implements session.SessionRepository using GORM
type SessionRepositoryGORM struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewSessionRepository creates a new GORM-based session repository
func NewSessionRepository(db *gorm.DB, clock shared.Clock) *SessionRepositoryGORM {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SessionRepositoryGORM{db: db, clock: clock}
}

// Save creates or updates a session
func (r *SessionRepositoryGORM) Save(ctx context.Context, s *session.Session) error {
	model := &SessionModel{
		ID:           s.ID(),
		Strategy:     s.Strategy(),
		Race:         s.Race().String(),
		Status:       string(s.Status()),
		Ticks:        s.Ticks(),
		AbortedTicks: s.AbortedTicks(),
		LastFrame:    s.LastFrame(),
		LastAbort:    s.LastAbort(),
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
		StartedAt:    s.StartedAt(),
		StoppedAt:    s.StoppedAt(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID(), err)
	}
	return nil
}

// FindByID retrieves a session
func (r *SessionRepositoryGORM) FindByID(ctx context.Context, id string) (*session.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("session", id)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return r.modelToSession(&model)
}

// List retrieves every session, newest first
func (r *SessionRepositoryGORM) List(ctx context.Context) ([]*session.Session, error) {
	var models []SessionModel
	if err := r.db.WithContext(ctx).Order("created_at DESC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*session.Session, 0, len(models))
	for i := range models {
		s, err := r.modelToSession(&models[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *SessionRepositoryGORM) modelToSession(model *SessionModel) (*session.Session, error) {
	race, err := buildtype.ParseRace(model.Race)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", model.ID, err)
	}
	return session.ReconstituteSession(
		model.ID, model.Strategy,
		race,
		shared.LifecycleStatus(model.Status),
		model.Ticks, model.AbortedTicks, model.LastFrame,
		model.LastAbort,
		model.CreatedAt, model.UpdatedAt,
		model.StartedAt, model.StoppedAt,
		r.clock,
	), nil
}

// TickRepositoryGORM implements session.TickRepository using GORM
type TickRepositoryGORM struct {
	db *gorm.DB
}

// NewTickRepository creates a new GORM-based tick history repository
func NewTickRepository(db *gorm.DB) *TickRepositoryGORM {
	return &TickRepositoryGORM{db: db}
}

// Append stores one tick record
func (r *TickRepositoryGORM) Append(ctx context.Context, record session.TickRecord) error {
	model := &TickModel{
		SessionID:     record.SessionID,
		Frame:         record.Frame,
		PlanLength:    record.PlanLength,
		Dispatched:    record.Dispatched,
		Cancelled:     record.Cancelled,
		Reprioritized: record.Reprioritized,
		MaxGasWorkers: record.MaxGasWorkers,
		Aborted:       record.Aborted,
		DurationMicro: record.Duration.Microseconds(),
		RecordedAt:    record.RecordedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append tick: %w", err)
	}
	return nil
}

// Recent returns up to limit records of a session, newest first
func (r *TickRepositoryGORM) Recent(ctx context.Context, sessionID string, limit int) ([]session.TickRecord, error) {
	var models []TickModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ticks: %w", err)
	}

	records := make([]session.TickRecord, len(models))
	for i, model := range models {
		records[i] = session.TickRecord{
			SessionID:     model.SessionID,
			Frame:         model.Frame,
			PlanLength:    model.PlanLength,
			Dispatched:    model.Dispatched,
			Cancelled:     model.Cancelled,
			Reprioritized: model.Reprioritized,
			MaxGasWorkers: model.MaxGasWorkers,
			Aborted:       model.Aborted,
			Duration:      time.Duration(model.DurationMicro) * time.Microsecond,
			RecordedAt:    model.RecordedAt,
		}
	}
	return records, nil
}
