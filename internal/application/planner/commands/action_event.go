package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
)

// ActionEvent is an executor report about a dispatched action
type ActionEvent string

const (
	ActionEventStarted   ActionEvent = "started"
	ActionEventCompleted ActionEvent = "completed"
	ActionEventFailed    ActionEvent = "failed"
)

// ActionEventCommand forwards an executor report to the session
type ActionEventCommand struct {
	SessionID string
	ActionID  string
	Event     ActionEvent
	Reason    string // Only used for failures
}

// ActionEventHandler handles ActionEventCommand
type ActionEventHandler struct {
	manager *planner.SessionManager
}

// NewActionEventHandler creates a new ActionEventHandler
func NewActionEventHandler(manager *planner.SessionManager) *ActionEventHandler {
	return &ActionEventHandler{manager: manager}
}

// Handle executes the ActionEvent command
func (h *ActionEventHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ActionEventCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ActionEventCommand")
	}

	runner, err := h.manager.Runner(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	switch cmd.Event {
	case ActionEventStarted:
		err = runner.ActionStarted(ctx, cmd.ActionID)
	case ActionEventCompleted:
		err = runner.ActionCompleted(ctx, cmd.ActionID)
	case ActionEventFailed:
		err = runner.ActionFailed(ctx, cmd.ActionID, cmd.Reason)
	default:
		return nil, fmt.Errorf("unknown action event %q", cmd.Event)
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}
