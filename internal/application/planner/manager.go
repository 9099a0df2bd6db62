package planner

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// ManagerDeps are the collaborators shared by every session
type ManagerDeps struct {
	Catalog    *buildtype.Catalog
	Registry   *Registry
	Dispatcher dispatch.Dispatcher
	Actions    dispatch.ActionRepository
	Sessions   session.SessionRepository
	Ticks      session.TickRepository
	Planner    Config
	Runner     RunnerConfig
	Clock      shared.Clock
	// Listeners are attached to every new session.
	Listeners []TickListener
}

// SessionManager creates and looks up session runners
type SessionManager struct {
	mu      sync.RWMutex
	deps    ManagerDeps
	runners map[string]*SessionRunner
}

// NewSessionManager creates an empty manager
func NewSessionManager(deps ManagerDeps) *SessionManager {
	if deps.Clock == nil {
		deps.Clock = shared.NewRealClock()
	}
	return &SessionManager{deps: deps, runners: make(map[string]*SessionRunner)}
}

// Catalog returns the catalog sessions are planned against
func (m *SessionManager) Catalog() *buildtype.Catalog { return m.deps.Catalog }

// Registry returns the strategy registry
func (m *SessionManager) Registry() *Registry { return m.deps.Registry }

// OnTick attaches l to every session started afterwards
func (m *SessionManager) OnTick(l TickListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps.Listeners = append(m.deps.Listeners, l)
}

// StartSession creates a runner for strategyName and starts it. An empty
// id gets a generated one.
func (m *SessionManager) StartSession(ctx context.Context, id, strategyName string, race buildtype.Race) (*SessionRunner, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.runners[id]; ok && !existing.Session().IsFinished() {
		return nil, shared.NewSessionError(id, "already running")
	}

	strategy, err := m.deps.Registry.Create(strategyName, m.deps.Catalog)
	if err != nil {
		return nil, err
	}
	s, err := session.NewSession(id, strategyName, race, m.deps.Clock)
	if err != nil {
		return nil, err
	}

	runner := NewSessionRunner(
		s,
		m.deps.Catalog,
		NewPlanner(strategy, NewBlackboard(), m.deps.Planner),
		m.deps.Dispatcher,
		m.deps.Actions,
		m.deps.Sessions,
		m.deps.Ticks,
		m.deps.Runner,
		m.deps.Clock,
	)
	for _, l := range m.deps.Listeners {
		runner.OnTick(l)
	}
	if err := runner.Start(ctx); err != nil {
		return nil, err
	}
	m.runners[id] = runner

	common.LoggerFromContext(ctx).Log(common.LevelInfo, "Session started", map[string]interface{}{
		"session_id": id,
		"strategy":   strategyName,
		"race":       race.String(),
	})
	return runner, nil
}

// Runner returns the runner of a session
func (m *SessionManager) Runner(id string) (*SessionRunner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runner, ok := m.runners[id]
	if !ok {
		return nil, shared.NewNotFoundError("session", id)
	}
	return runner, nil
}

// StopSession stops a session and withdraws its pending actions
func (m *SessionManager) StopSession(ctx context.Context, id string) error {
	runner, err := m.Runner(id)
	if err != nil {
		return err
	}
	return runner.Stop(ctx)
}

// StopAll stops every running session, returning the first error
func (m *SessionManager) StopAll(ctx context.Context) error {
	var first error
	for _, s := range m.Sessions() {
		if !s.IsRunning() {
			continue
		}
		if err := m.StopSession(ctx, s.ID()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Sessions lists the sessions known to this process, oldest first
func (m *SessionManager) Sessions() []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session.Session, 0, len(m.runners))
	for _, r := range m.runners {
		out = append(out, r.Session())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}
