package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
)

// PlanTickCommand runs one planning tick for a session
type PlanTickCommand struct {
	SessionID string
	Input     planner.TickInput
}

// PlanTickHandler handles PlanTickCommand
type PlanTickHandler struct {
	manager *planner.SessionManager
}

// NewPlanTickHandler creates a new PlanTickHandler
func NewPlanTickHandler(manager *planner.SessionManager) *PlanTickHandler {
	return &PlanTickHandler{manager: manager}
}

// Handle executes the PlanTick command and returns the *planner.TickReport
func (h *PlanTickHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*PlanTickCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *PlanTickCommand")
	}

	runner, err := h.manager.Runner(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	return runner.Tick(ctx, cmd.Input)
}

// ObserveUnitsCommand reports units that appeared or started morphing
type ObserveUnitsCommand struct {
	SessionID string
	Units     []planner.ObservedUnit
}

// ObserveUnitsResponse counts retired actions
type ObserveUnitsResponse struct {
	Retired int
}

// ObserveUnitsHandler handles ObserveUnitsCommand
type ObserveUnitsHandler struct {
	manager *planner.SessionManager
}

// NewObserveUnitsHandler creates a new ObserveUnitsHandler
func NewObserveUnitsHandler(manager *planner.SessionManager) *ObserveUnitsHandler {
	return &ObserveUnitsHandler{manager: manager}
}

// Handle executes the ObserveUnits command
func (h *ObserveUnitsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ObserveUnitsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ObserveUnitsCommand")
	}

	runner, err := h.manager.Runner(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	retired, err := runner.ObserveNewUnits(ctx, cmd.Units)
	if err != nil {
		return nil, err
	}
	return &ObserveUnitsResponse{Retired: retired}, nil
}
