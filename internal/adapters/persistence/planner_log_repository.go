package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// PlannerLogRepository manages planner log persistence
type PlannerLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, sessionID, message, level string, metadata map[string]interface{}) error

	// GetLogs retrieves logs for a session with optional filtering, newest first
	GetLogs(ctx context.Context, sessionID string, limit, offset int, level *string, since *time.Time) ([]PlannerLogEntry, error)
}

// PlannerLogEntry represents a log entry
type PlannerLogEntry struct {
	ID        int
	SessionID string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormPlannerLogRepository is a GORM-based implementation
type GormPlannerLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	// Deduplication cache
	dedupCache   map[string]time.Time // key: sessionID+message, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormPlannerLogRepository creates a new planner log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormPlannerLogRepository(db *gorm.DB, clock shared.Clock) *GormPlannerLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormPlannerLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000, // Max cache entries before cleanup
	}
}

// Log writes a log entry with time-windowed deduplication
func (r *GormPlannerLogRepository) Log(ctx context.Context, sessionID, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := sessionID + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists {
		if now.Sub(lastLogged) < r.dedupWindow {
			// Duplicate within window, skip logging
			r.dedupMu.Unlock()
			return nil
		}
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	var metadataJSON string
	if len(metadata) > 0 {
		// Metadata is optional; an unmarshalable map is dropped
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	entry := &PlannerLogModel{
		SessionID: sessionID,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes entries older than the deduplication window
// Must be called while holding dedupMu lock
func (r *GormPlannerLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs for a session with optional filtering and pagination
func (r *GormPlannerLogRepository) GetLogs(ctx context.Context, sessionID string, limit, offset int, level *string, since *time.Time) ([]PlannerLogEntry, error) {
	var models []PlannerLogModel

	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}
	query = query.Order("timestamp DESC, id DESC").Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]PlannerLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}
		entries[i] = PlannerLogEntry{
			ID:        model.ID,
			SessionID: model.SessionID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}
