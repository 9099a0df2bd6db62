package planner

import "fmt"

// ErrHookAborted reports a strategy hook that panicked during a tick. The
// tick is discarded and previously dispatched actions stay in effect.
type ErrHookAborted struct {
	Strategy string
	Hook     string
	Frame    int
	Cause    interface{}
}

func (e *ErrHookAborted) Error() string {
	return fmt.Sprintf("strategy %s aborted in %s at frame %d: %v", e.Strategy, e.Hook, e.Frame, e.Cause)
}

// ErrUnknownStrategy is returned when a registry lookup fails
type ErrUnknownStrategy struct {
	Name      string
	Available []string
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("unknown strategy %q (available: %v)", e.Name, e.Available)
}

// ErrSessionNotRunning is returned when a tick is requested for a session
// that is not running
type ErrSessionNotRunning struct {
	SessionID string
	Status    string
}

func (e *ErrSessionNotRunning) Error() string {
	return fmt.Sprintf("session %s is not running (status %s)", e.SessionID, e.Status)
}
