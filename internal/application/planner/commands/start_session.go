package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// StartSessionCommand starts planning a new game
type StartSessionCommand struct {
	SessionID string // Optional: generated when empty
	Strategy  string
	Race      string
}

// StartSessionResponse identifies the started session
type StartSessionResponse struct {
	SessionID string
	Strategy  string
	Race      string
}

// StartSessionHandler handles StartSessionCommand
type StartSessionHandler struct {
	manager *planner.SessionManager
}

// NewStartSessionHandler creates a new StartSessionHandler
func NewStartSessionHandler(manager *planner.SessionManager) *StartSessionHandler {
	return &StartSessionHandler{manager: manager}
}

// Handle executes the StartSession command
func (h *StartSessionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StartSessionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *StartSessionCommand")
	}

	race, err := buildtype.ParseRace(cmd.Race)
	if err != nil {
		return nil, fmt.Errorf("invalid race: %w", err)
	}

	runner, err := h.manager.StartSession(ctx, cmd.SessionID, cmd.Strategy, race)
	if err != nil {
		return nil, err
	}

	return &StartSessionResponse{
		SessionID: runner.Session().ID(),
		Strategy:  runner.Session().Strategy(),
		Race:      race.String(),
	}, nil
}

// StopSessionCommand stops a session and withdraws its pending actions
type StopSessionCommand struct {
	SessionID string
}

// StopSessionResponse reports the final session status
type StopSessionResponse struct {
	SessionID string
	Status    string
}

// StopSessionHandler handles StopSessionCommand
type StopSessionHandler struct {
	manager *planner.SessionManager
}

// NewStopSessionHandler creates a new StopSessionHandler
func NewStopSessionHandler(manager *planner.SessionManager) *StopSessionHandler {
	return &StopSessionHandler{manager: manager}
}

// Handle executes the StopSession command
func (h *StopSessionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StopSessionCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *StopSessionCommand")
	}
	if err := h.manager.StopSession(ctx, cmd.SessionID); err != nil {
		return nil, err
	}
	runner, err := h.manager.Runner(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	return &StopSessionResponse{SessionID: cmd.SessionID, Status: string(runner.Session().Status())}, nil
}
