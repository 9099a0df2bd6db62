package helpers

import (
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// TestManager bundles a session manager with the fakes behind it
type TestManager struct {
	Manager    *planner.SessionManager
	Registry   *planner.Registry
	Dispatcher *MockDispatcher
	Actions    *MockActionRepository
	Sessions   *MockSessionRepository
	Ticks      *MockTickRepository
}

// NewTestManager builds a manager over the fixture catalog with an "idle"
// strategy registered. Extra strategies can be added to Registry.
func NewTestManager(clock shared.Clock, listeners ...planner.TickListener) *TestManager {
	registry := planner.NewRegistry()
	_ = registry.Register("idle", func(*buildtype.Catalog) (planner.Strategy, error) {
		return &FuncStrategy{StrategyName: "idle"}, nil
	})

	tm := &TestManager{
		Registry:   registry,
		Dispatcher: NewMockDispatcher(),
		Actions:    NewMockActionRepository(),
		Sessions:   NewMockSessionRepository(),
		Ticks:      NewMockTickRepository(),
	}
	tm.Manager = planner.NewSessionManager(planner.ManagerDeps{
		Catalog:    NewTestCatalog(),
		Registry:   registry,
		Dispatcher: tm.Dispatcher,
		Actions:    tm.Actions,
		Sessions:   tm.Sessions,
		Ticks:      tm.Ticks,
		Planner:    planner.DefaultConfig(),
		Clock:      clock,
		Listeners:  listeners,
	})
	return tm
}
