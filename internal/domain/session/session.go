package session

import (
	"fmt"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// Session is one game's planning loop: a strategy replanned against live
// snapshots until the game ends or the session is stopped.
//
// Lifecycle is delegated to shared.LifecycleStateMachine. Sessions count
// ticks and aborted ticks; an aborted tick leaves the previous plan in
// effect and never fails the session.
type Session struct {
	id       string
	strategy string
	race     buildtype.Race

	lifecycle *shared.LifecycleStateMachine

	ticks        int
	abortedTicks int
	lastFrame    int
	lastAbort    string

	clock shared.Clock
}

// NewSession creates a PENDING session
func NewSession(id, strategy string, race buildtype.Race, clock shared.Clock) (*Session, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "session id is required")
	}
	if strategy == "" {
		return nil, shared.NewValidationError("strategy", "strategy name is required")
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Session{
		id:        id,
		strategy:  strategy,
		race:      race,
		lifecycle: shared.NewLifecycleStateMachine(clock),
		clock:     clock,
	}, nil
}

// ReconstituteSession rebuilds a session from persistence
func ReconstituteSession(
	id, strategy string,
	race buildtype.Race,
	status shared.LifecycleStatus,
	ticks, abortedTicks, lastFrame int,
	lastAbort string,
	createdAt, updatedAt time.Time,
	startedAt, stoppedAt *time.Time,
	clock shared.Clock,
) *Session {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	lc := shared.NewLifecycleStateMachine(clock)
	lc.Restore(status, createdAt, updatedAt, startedAt, stoppedAt, nil)
	return &Session{
		id:           id,
		strategy:     strategy,
		race:         race,
		lifecycle:    lc,
		ticks:        ticks,
		abortedTicks: abortedTicks,
		lastFrame:    lastFrame,
		lastAbort:    lastAbort,
		clock:        clock,
	}
}

// Getters

func (s *Session) ID() string                     { return s.id }
func (s *Session) Strategy() string               { return s.strategy }
func (s *Session) Race() buildtype.Race           { return s.race }
func (s *Session) Status() shared.LifecycleStatus { return s.lifecycle.Status() }
func (s *Session) Ticks() int                     { return s.ticks }
func (s *Session) AbortedTicks() int              { return s.abortedTicks }
func (s *Session) LastFrame() int                 { return s.lastFrame }
func (s *Session) LastAbort() string              { return s.lastAbort }
func (s *Session) CreatedAt() time.Time           { return s.lifecycle.CreatedAt() }
func (s *Session) UpdatedAt() time.Time           { return s.lifecycle.UpdatedAt() }
func (s *Session) StartedAt() *time.Time          { return s.lifecycle.StartedAt() }
func (s *Session) StoppedAt() *time.Time          { return s.lifecycle.StoppedAt() }
func (s *Session) RuntimeDuration() time.Duration { return s.lifecycle.RuntimeDuration() }
func (s *Session) IsRunning() bool                { return s.lifecycle.IsRunning() }
func (s *Session) IsFinished() bool               { return s.lifecycle.IsFinished() }

// Start begins planning
func (s *Session) Start() error {
	if err := s.lifecycle.Start(); err != nil {
		return shared.NewSessionError(s.id, err.Error())
	}
	return nil
}

// Stop ends planning at the operator's request
func (s *Session) Stop() error {
	if err := s.lifecycle.Stop(); err != nil {
		return shared.NewSessionError(s.id, err.Error())
	}
	return nil
}

// Complete marks the game as over
func (s *Session) Complete() error {
	if err := s.lifecycle.Complete(); err != nil {
		return shared.NewSessionError(s.id, err.Error())
	}
	return nil
}

// Fail records an unrecoverable error such as a lost executor
func (s *Session) Fail(err error) error {
	if ferr := s.lifecycle.Fail(err); ferr != nil {
		return shared.NewSessionError(s.id, ferr.Error())
	}
	return nil
}

// RecordTick counts a finished planning tick at frame
func (s *Session) RecordTick(frame int) error {
	if !s.IsRunning() {
		return shared.NewSessionError(s.id, fmt.Sprintf("cannot tick in %s state", s.Status()))
	}
	if frame < s.lastFrame {
		return shared.NewSessionError(s.id, fmt.Sprintf("frame went backwards: %d < %d", frame, s.lastFrame))
	}
	s.ticks++
	s.lastFrame = frame
	s.lifecycle.Touch()
	return nil
}

// RecordAbort counts a tick whose strategy hook panicked
func (s *Session) RecordAbort(frame int, reason string) {
	s.abortedTicks++
	s.lastAbort = reason
	if frame > s.lastFrame {
		s.lastFrame = frame
	}
	s.lifecycle.Touch()
}

func (s *Session) String() string {
	return fmt.Sprintf("Session[%s, strategy=%s, race=%s, status=%s, ticks=%d, aborted=%d]",
		s.id, s.strategy, s.race, s.Status(), s.ticks, s.abortedTicks)
}
