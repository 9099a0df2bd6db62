package dispatch

import "fmt"

// ErrInvalidActionTransition indicates an invalid action state transition
type ErrInvalidActionTransition struct {
	ActionID    string
	From        ActionStatus
	To          ActionStatus
	Description string
}

func (e *ErrInvalidActionTransition) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("invalid action transition for %s: %s -> %s: %s",
			e.ActionID, e.From, e.To, e.Description)
	}
	return fmt.Sprintf("invalid action transition for %s: %s -> %s",
		e.ActionID, e.From, e.To)
}

// ErrActionNotFound indicates an action could not be found
type ErrActionNotFound struct {
	ActionID string
}

func (e *ErrActionNotFound) Error() string {
	return fmt.Sprintf("action not found: %s", e.ActionID)
}
