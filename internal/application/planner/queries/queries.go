package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
)

// GetPlanQuery returns the latest tick report of a session
type GetPlanQuery struct {
	SessionID string
}

// GetPlanResponse carries the latest report; Found is false before the
// first tick.
type GetPlanResponse struct {
	Report planner.TickReport
	Found  bool
	Board  map[string]interface{}
}

// GetPlanHandler handles GetPlanQuery
type GetPlanHandler struct {
	manager *planner.SessionManager
}

// NewGetPlanHandler creates a new GetPlanHandler
func NewGetPlanHandler(manager *planner.SessionManager) *GetPlanHandler {
	return &GetPlanHandler{manager: manager}
}

// Handle executes the GetPlan query
func (h *GetPlanHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(*GetPlanQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetPlanQuery")
	}
	runner, err := h.manager.Runner(q.SessionID)
	if err != nil {
		return nil, err
	}
	report, found := runner.LastReport()
	return &GetPlanResponse{Report: report, Found: found, Board: runner.Planner().Board().Snapshot()}, nil
}

// ListSessionsQuery lists the sessions of this process
type ListSessionsQuery struct{}

// ListSessionsResponse holds the sessions, oldest first
type ListSessionsResponse struct {
	Sessions []*session.Session
}

// ListSessionsHandler handles ListSessionsQuery
type ListSessionsHandler struct {
	manager *planner.SessionManager
}

// NewListSessionsHandler creates a new ListSessionsHandler
func NewListSessionsHandler(manager *planner.SessionManager) *ListSessionsHandler {
	return &ListSessionsHandler{manager: manager}
}

// Handle executes the ListSessions query
func (h *ListSessionsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListSessionsQuery); !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListSessionsQuery")
	}
	return &ListSessionsResponse{Sessions: h.manager.Sessions()}, nil
}

// SimulateQuery runs a strategy against a snapshot without dispatching
type SimulateQuery struct {
	Strategy string
	Snapshot autobuild.LiveSnapshot
	Frames   int
	Config   planner.Config
}

// SimulateResponse is the state reached after Frames
type SimulateResponse struct {
	Final *autobuild.SimState
	Plan  []autobuild.PlanItem
}

// SimulateHandler handles SimulateQuery
type SimulateHandler struct {
	manager *planner.SessionManager
}

// NewSimulateHandler creates a new SimulateHandler
func NewSimulateHandler(manager *planner.SessionManager) *SimulateHandler {
	return &SimulateHandler{manager: manager}
}

// Handle executes the Simulate query
func (h *SimulateHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(*SimulateQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SimulateQuery")
	}
	if q.Frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", q.Frames)
	}

	strategy, err := h.manager.Registry().Create(q.Strategy, h.manager.Catalog())
	if err != nil {
		return nil, err
	}
	p := planner.NewPlanner(strategy, nil, q.Config)
	st := autobuild.FromSnapshot(h.manager.Catalog(), q.Snapshot)
	final, err := p.SimEvaluateFor(ctx, st, q.Frames)
	if err != nil {
		return nil, err
	}
	return &SimulateResponse{Final: final, Plan: final.CommittedPlan}, nil
}
