package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

var activeStatuses = []string{
	string(dispatch.ActionStatusPending),
	string(dispatch.ActionStatusDispatched),
	string(dispatch.ActionStatusStarted),
}

// ActionRepositoryGORM implements dispatch.ActionRepository using GORM.
// Build types are stored by name and resolved against the catalog on load.
type ActionRepositoryGORM struct {
	db      *gorm.DB
	catalog *buildtype.Catalog
	clock   shared.Clock
}

// NewActionRepository creates a new GORM-based action repository
func NewActionRepository(db *gorm.DB, catalog *buildtype.Catalog, clock shared.Clock) *ActionRepositoryGORM {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ActionRepositoryGORM{db: db, catalog: catalog, clock: clock}
}

// Save creates or updates an action
func (r *ActionRepositoryGORM) Save(ctx context.Context, action *dispatch.Action) error {
	model := &ActionModel{
		ID:           action.ID(),
		SessionID:    action.SessionID(),
		BuildType:    action.BuildType().Name,
		PosX:         action.Position().X,
		PosY:         action.Position().Y,
		Priority:     action.Priority(),
		Status:       string(action.Status()),
		Handle:       action.Handle(),
		PlannedFrame: action.PlannedFrame(),
		FailReason:   action.FailReason(),
		CreatedAt:    action.CreatedAt(),
		UpdatedAt:    action.UpdatedAt(),
		StartedAt:    action.StartedAt(),
		CompletedAt:  action.CompletedAt(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save action %s: %w", action.ID(), err)
	}
	return nil
}

// FindByID retrieves an action of a session
func (r *ActionRepositoryGORM) FindByID(ctx context.Context, sessionID, actionID string) (*dispatch.Action, error) {
	var model ActionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", actionID, sessionID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &dispatch.ErrActionNotFound{ActionID: actionID}
		}
		return nil, fmt.Errorf("failed to find action: %w", err)
	}
	return r.modelToAction(&model)
}

// FindActive retrieves every non-terminal action of a session in dispatch order
func (r *ActionRepositoryGORM) FindActive(ctx context.Context, sessionID string) ([]*dispatch.Action, error) {
	var models []ActionModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND status IN ?", sessionID, activeStatuses).
		Order("created_at ASC, priority ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find active actions: %w", err)
	}

	actions := make([]*dispatch.Action, 0, len(models))
	for i := range models {
		a, err := r.modelToAction(&models[i])
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// CountByStatus counts the actions of a session grouped by status
func (r *ActionRepositoryGORM) CountByStatus(ctx context.Context, sessionID string) (map[dispatch.ActionStatus]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := r.db.WithContext(ctx).
		Model(&ActionModel{}).
		Select("status, count(*) as count").
		Where("session_id = ?", sessionID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}

	counts := make(map[dispatch.ActionStatus]int, len(rows))
	for _, row := range rows {
		counts[dispatch.ActionStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *ActionRepositoryGORM) modelToAction(model *ActionModel) (*dispatch.Action, error) {
	t, err := r.catalog.Get(model.BuildType)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", model.ID, err)
	}
	return dispatch.ReconstituteAction(
		model.ID,
		model.SessionID,
		t,
		autobuild.Position{X: model.PosX, Y: model.PosY},
		model.Priority,
		dispatch.ActionStatus(model.Status),
		model.Handle,
		model.PlannedFrame,
		model.FailReason,
		model.CreatedAt,
		model.UpdatedAt,
		model.StartedAt,
		model.CompletedAt,
		r.clock,
	), nil
}
