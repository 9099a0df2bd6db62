package shared

import (
	"fmt"
	"time"
)

// LifecycleStatus is the coarse state of a long-lived entity such as a
// planning session.
type LifecycleStatus string

const (
	LifecycleStatusPending   LifecycleStatus = "PENDING"
	LifecycleStatusRunning   LifecycleStatus = "RUNNING"
	LifecycleStatusCompleted LifecycleStatus = "COMPLETED"
	LifecycleStatusFailed    LifecycleStatus = "FAILED"
	LifecycleStatusStopped   LifecycleStatus = "STOPPED"
)

// IsTerminal reports whether no further transition is allowed except a restart.
func (s LifecycleStatus) IsTerminal() bool {
	return s == LifecycleStatusCompleted || s == LifecycleStatusFailed || s == LifecycleStatusStopped
}

// lifecycleTransitions lists the statuses each status may move to.
var lifecycleTransitions = map[LifecycleStatus][]LifecycleStatus{
	LifecycleStatusPending: {LifecycleStatusRunning, LifecycleStatusFailed, LifecycleStatusStopped},
	LifecycleStatusRunning: {LifecycleStatusCompleted, LifecycleStatusFailed, LifecycleStatusStopped},
	LifecycleStatusStopped: {LifecycleStatusRunning},
	LifecycleStatusFailed:  {LifecycleStatusPending},
}

// LifecycleStateMachine tracks PENDING → RUNNING → COMPLETED/FAILED/STOPPED
// with timestamps taken from an injected clock. Entities embed it by
// composition.
type LifecycleStateMachine struct {
	status    LifecycleStatus
	createdAt time.Time
	updatedAt time.Time
	startedAt *time.Time
	stoppedAt *time.Time
	lastError error
	clock     Clock
}

// NewLifecycleStateMachine creates a machine in PENDING state
func NewLifecycleStateMachine(clock Clock) *LifecycleStateMachine {
	if clock == nil {
		clock = NewRealClock()
	}

	now := clock.Now()
	return &LifecycleStateMachine{
		status:    LifecycleStatusPending,
		createdAt: now,
		updatedAt: now,
		clock:     clock,
	}
}

func (sm *LifecycleStateMachine) Status() LifecycleStatus { return sm.status }
func (sm *LifecycleStateMachine) CreatedAt() time.Time    { return sm.createdAt }
func (sm *LifecycleStateMachine) UpdatedAt() time.Time    { return sm.updatedAt }
func (sm *LifecycleStateMachine) StartedAt() *time.Time   { return sm.startedAt }
func (sm *LifecycleStateMachine) StoppedAt() *time.Time   { return sm.stoppedAt }
func (sm *LifecycleStateMachine) LastError() error        { return sm.lastError }

func (sm *LifecycleStateMachine) transition(to LifecycleStatus) (time.Time, error) {
	for _, allowed := range lifecycleTransitions[sm.status] {
		if allowed == to {
			now := sm.clock.Now()
			sm.status = to
			sm.updatedAt = now
			return now, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot move from %s to %s", sm.status, to)
}

// Start moves a pending or stopped entity to RUNNING
func (sm *LifecycleStateMachine) Start() error {
	now, err := sm.transition(LifecycleStatusRunning)
	if err != nil {
		return err
	}
	sm.startedAt = &now
	sm.stoppedAt = nil
	return nil
}

// Complete finishes a running entity
func (sm *LifecycleStateMachine) Complete() error {
	now, err := sm.transition(LifecycleStatusCompleted)
	if err != nil {
		return err
	}
	sm.stoppedAt = &now
	return nil
}

// Fail records err and moves to FAILED
func (sm *LifecycleStateMachine) Fail(err error) error {
	now, terr := sm.transition(LifecycleStatusFailed)
	if terr != nil {
		return terr
	}
	sm.lastError = err
	sm.stoppedAt = &now
	return nil
}

// Stop halts a pending or running entity
func (sm *LifecycleStateMachine) Stop() error {
	now, err := sm.transition(LifecycleStatusStopped)
	if err != nil {
		return err
	}
	sm.stoppedAt = &now
	return nil
}

// Reset returns a failed entity to PENDING and clears its error
func (sm *LifecycleStateMachine) Reset() error {
	if _, err := sm.transition(LifecycleStatusPending); err != nil {
		return err
	}
	sm.lastError = nil
	sm.startedAt = nil
	sm.stoppedAt = nil
	return nil
}

func (sm *LifecycleStateMachine) IsRunning() bool  { return sm.status == LifecycleStatusRunning }
func (sm *LifecycleStateMachine) IsFinished() bool { return sm.status.IsTerminal() }

// Touch bumps updatedAt without changing state
func (sm *LifecycleStateMachine) Touch() {
	sm.updatedAt = sm.clock.Now()
}

// RuntimeDuration is the time spent since the last start, up to the stop
// time when stopped.
func (sm *LifecycleStateMachine) RuntimeDuration() time.Duration {
	if sm.startedAt == nil {
		return 0
	}
	end := sm.clock.Now()
	if sm.stoppedAt != nil {
		end = *sm.stoppedAt
	}
	return end.Sub(*sm.startedAt)
}

// Restore overwrites the machine with persisted values
func (sm *LifecycleStateMachine) Restore(
	status LifecycleStatus,
	createdAt, updatedAt time.Time,
	startedAt, stoppedAt *time.Time,
	lastError error,
) {
	sm.status = status
	sm.createdAt = createdAt
	sm.updatedAt = updatedAt
	sm.startedAt = startedAt
	sm.stoppedAt = stoppedAt
	sm.lastError = lastError
}
