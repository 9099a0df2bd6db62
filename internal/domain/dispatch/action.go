package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// ActionStatus represents the lifecycle state of a dispatched action
type ActionStatus string

const (
	// ActionStatusPending - Created from the plan, not yet handed to the executor
	ActionStatusPending ActionStatus = "PENDING"

	// ActionStatusDispatched - The executor accepted the action
	ActionStatusDispatched ActionStatus = "DISPATCHED"

	// ActionStatusStarted - The executor reported construction or research began
	ActionStatusStarted ActionStatus = "STARTED"

	// ActionStatusCompleted - The item was produced
	ActionStatusCompleted ActionStatus = "COMPLETED"

	// ActionStatusFailed - The executor gave up on the action
	ActionStatusFailed ActionStatus = "FAILED"

	// ActionStatusCancelled - The plan no longer contains the item
	ActionStatusCancelled ActionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusCompleted || s == ActionStatusFailed || s == ActionStatusCancelled
}

// Action is a committed plan item handed to the execution layer. Actions are
// matched against the next plan by type and position.
//
// State Machine:
//
//	PENDING -> DISPATCHED -> STARTED -> COMPLETED
//	      \            \          \-> FAILED
//	       \            \-> CANCELLED | FAILED
//	        \-> CANCELLED
type Action struct {
	id        string
	sessionID string
	buildType *buildtype.BuildType
	position  autobuild.Position
	priority  int
	status    ActionStatus
	handle    string

	plannedFrame int
	failReason   string
	onCommitted  func()

	createdAt   time.Time
	updatedAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time

	clock shared.Clock
}

// NewAction creates a PENDING action for a plan entry.
func NewAction(sessionID string, entry autobuild.BuildEntry, priority, plannedFrame int, clock shared.Clock) *Action {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	now := clock.Now()
	return &Action{
		id:           uuid.New().String(),
		sessionID:    sessionID,
		buildType:    entry.Type,
		position:     entry.Pos,
		priority:     priority,
		status:       ActionStatusPending,
		plannedFrame: plannedFrame,
		onCommitted:  entry.OnCommitted,
		createdAt:    now,
		updatedAt:    now,
		clock:        clock,
	}
}

// ReconstituteAction rebuilds an action from persistence.
func ReconstituteAction(
	id string,
	sessionID string,
	buildType *buildtype.BuildType,
	position autobuild.Position,
	priority int,
	status ActionStatus,
	handle string,
	plannedFrame int,
	failReason string,
	createdAt time.Time,
	updatedAt time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	clock shared.Clock,
) *Action {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Action{
		id:           id,
		sessionID:    sessionID,
		buildType:    buildType,
		position:     position,
		priority:     priority,
		status:       status,
		handle:       handle,
		plannedFrame: plannedFrame,
		failReason:   failReason,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		startedAt:    startedAt,
		completedAt:  completedAt,
		clock:        clock,
	}
}

// Getters

func (a *Action) ID() string                      { return a.id }
func (a *Action) SessionID() string               { return a.sessionID }
func (a *Action) BuildType() *buildtype.BuildType { return a.buildType }
func (a *Action) Position() autobuild.Position    { return a.position }
func (a *Action) Priority() int                   { return a.priority }
func (a *Action) Status() ActionStatus            { return a.status }
func (a *Action) Handle() string                  { return a.handle }
func (a *Action) PlannedFrame() int               { return a.plannedFrame }
func (a *Action) FailReason() string              { return a.failReason }
func (a *Action) CreatedAt() time.Time            { return a.createdAt }
func (a *Action) UpdatedAt() time.Time            { return a.updatedAt }
func (a *Action) StartedAt() *time.Time           { return a.startedAt }
func (a *Action) CompletedAt() *time.Time         { return a.completedAt }

// Entry returns the plan entry this action was created for.
func (a *Action) Entry() autobuild.BuildEntry {
	return autobuild.BuildEntry{Type: a.buildType, Pos: a.position, OnCommitted: a.onCommitted}
}

// Matches reports whether a plan entry refers to the same item.
func (a *Action) Matches(entry autobuild.BuildEntry) bool {
	return a.buildType == entry.Type && a.position == entry.Pos
}

// IsActive reports whether the action still occupies the executor.
func (a *Action) IsActive() bool {
	return !a.status.IsTerminal()
}

// SetPriority updates the priority and reports whether it changed.
func (a *Action) SetPriority(priority int) bool {
	if a.priority == priority {
		return false
	}
	a.priority = priority
	a.updatedAt = a.clock.Now()
	return true
}

// FireCommitted runs the entry callback once; later calls do nothing.
func (a *Action) FireCommitted() {
	if a.onCommitted == nil {
		return
	}
	cb := a.onCommitted
	a.onCommitted = nil
	cb()
}

// State transitions

// MarkDispatched records the executor handle
func (a *Action) MarkDispatched(handle string) error {
	if a.status != ActionStatusPending {
		return &ErrInvalidActionTransition{
			ActionID:    a.id,
			From:        a.status,
			To:          ActionStatusDispatched,
			Description: "can only dispatch PENDING actions",
		}
	}
	a.status = ActionStatusDispatched
	a.handle = handle
	a.updatedAt = a.clock.Now()
	return nil
}

// MarkStarted records that the executor began working on the action
func (a *Action) MarkStarted() error {
	if a.status == ActionStatusStarted {
		return nil
	}
	if a.status != ActionStatusDispatched && a.status != ActionStatusPending {
		return &ErrInvalidActionTransition{
			ActionID: a.id,
			From:     a.status,
			To:       ActionStatusStarted,
		}
	}
	now := a.clock.Now()
	a.status = ActionStatusStarted
	a.startedAt = &now
	a.updatedAt = now
	return nil
}

// Complete marks the action as produced
func (a *Action) Complete() error {
	if a.status.IsTerminal() {
		return &ErrInvalidActionTransition{
			ActionID:    a.id,
			From:        a.status,
			To:          ActionStatusCompleted,
			Description: "action already finished",
		}
	}
	now := a.clock.Now()
	a.status = ActionStatusCompleted
	a.completedAt = &now
	a.updatedAt = now
	return nil
}

// Fail marks the action as abandoned by the executor
func (a *Action) Fail(reason string) error {
	if a.status.IsTerminal() {
		return &ErrInvalidActionTransition{
			ActionID:    a.id,
			From:        a.status,
			To:          ActionStatusFailed,
			Description: "action already finished",
		}
	}
	now := a.clock.Now()
	a.status = ActionStatusFailed
	a.failReason = reason
	a.completedAt = &now
	a.updatedAt = now
	return nil
}

// Cancel withdraws the action. Cancelling a cancelled action is a no-op; a
// started action cannot be cancelled.
func (a *Action) Cancel() error {
	switch a.status {
	case ActionStatusCancelled:
		return nil
	case ActionStatusPending, ActionStatusDispatched:
	default:
		return &ErrInvalidActionTransition{
			ActionID:    a.id,
			From:        a.status,
			To:          ActionStatusCancelled,
			Description: "can only cancel actions that have not started",
		}
	}
	now := a.clock.Now()
	a.status = ActionStatusCancelled
	a.completedAt = &now
	a.updatedAt = now
	return nil
}
