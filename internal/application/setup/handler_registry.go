package setup

import (
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	plannerCommands "github.com/andrescamacho/autobuild-go/internal/application/planner/commands"
	plannerQueries "github.com/andrescamacho/autobuild-go/internal/application/planner/queries"
)

// HandlerRegistry holds the application dependencies needed to build handlers
type HandlerRegistry struct {
	manager *planner.SessionManager
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry(manager *planner.SessionManager) *HandlerRegistry {
	return &HandlerRegistry{manager: manager}
}

// RegisterPlannerHandlers registers every planner command and query with the mediator
//
// Commands: StartSession, StopSession, PlanTick, ObserveUnits, ActionEvent.
// Queries: GetPlan, ListSessions, Simulate.
func (r *HandlerRegistry) RegisterPlannerHandlers(m common.Mediator) error {
	registrations := []func() error{
		func() error {
			return common.RegisterHandler[*plannerCommands.StartSessionCommand](m, plannerCommands.NewStartSessionHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerCommands.StopSessionCommand](m, plannerCommands.NewStopSessionHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerCommands.PlanTickCommand](m, plannerCommands.NewPlanTickHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerCommands.ObserveUnitsCommand](m, plannerCommands.NewObserveUnitsHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerCommands.ActionEventCommand](m, plannerCommands.NewActionEventHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerQueries.GetPlanQuery](m, plannerQueries.NewGetPlanHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerQueries.ListSessionsQuery](m, plannerQueries.NewListSessionsHandler(r.manager))
		},
		func() error {
			return common.RegisterHandler[*plannerQueries.SimulateQuery](m, plannerQueries.NewSimulateHandler(r.manager))
		},
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
