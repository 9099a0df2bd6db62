package dispatch

import (
	"context"
)

// Dispatcher hands actions to the execution layer
type Dispatcher interface {
	// Dispatch submits an action and returns the executor's handle for it
	Dispatch(ctx context.Context, action *Action) (string, error)

	// Cancel withdraws a previously dispatched action
	Cancel(ctx context.Context, action *Action) error

	// SetPriority updates the priority of a dispatched action
	SetPriority(ctx context.Context, action *Action, priority int) error
}

// ActionRepository defines persistence operations for actions
type ActionRepository interface {
	// Save creates or updates an action
	Save(ctx context.Context, action *Action) error

	// FindByID retrieves an action of a session
	FindByID(ctx context.Context, sessionID, actionID string) (*Action, error)

	// FindActive retrieves every non-terminal action of a session in dispatch order
	FindActive(ctx context.Context, sessionID string) ([]*Action, error)

	// CountByStatus counts the actions of a session grouped by status
	CountByStatus(ctx context.Context, sessionID string) (map[ActionStatus]int, error)
}
