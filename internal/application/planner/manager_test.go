package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

func idleFactory(name string) planner.Factory {
	return func(*buildtype.Catalog) (planner.Strategy, error) {
		return &helpers.FuncStrategy{StrategyName: name}, nil
	}
}

func newTestManager(t *testing.T) (*planner.SessionManager, *shared.MockClock) {
	t.Helper()
	registry := planner.NewRegistry()
	require.NoError(t, registry.Register("idle", idleFactory("idle")))
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return planner.NewSessionManager(planner.ManagerDeps{
		Catalog:    helpers.NewTestCatalog(),
		Registry:   registry,
		Dispatcher: helpers.NewMockDispatcher(),
		Actions:    helpers.NewMockActionRepository(),
		Planner:    planner.DefaultConfig(),
		Clock:      clock,
	}), clock
}

func TestRegistry_RejectsDuplicatesAndListsNames(t *testing.T) {
	registry := planner.NewRegistry()

	require.NoError(t, registry.Register("zvz", idleFactory("zvz")))
	require.NoError(t, registry.Register("default", idleFactory("default")))
	err := registry.Register("zvz", idleFactory("zvz"))

	assert.Error(t, err)
	assert.Error(t, registry.Register("", idleFactory("x")))
	assert.Equal(t, []string{"default", "zvz"}, registry.Names())
}

func TestRegistry_CreateUnknownStrategy(t *testing.T) {
	registry := planner.NewRegistry()
	require.NoError(t, registry.Register("default", idleFactory("default")))

	_, err := registry.Create("12pool", helpers.NewTestCatalog())

	var unknown *planner.ErrUnknownStrategy
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "12pool", unknown.Name)
	assert.Equal(t, []string{"default"}, unknown.Available)
}

func TestSessionManager_StartSession(t *testing.T) {
	// Arrange
	manager, _ := newTestManager(t)
	ctx := context.Background()

	// Act
	runner, err := manager.StartSession(ctx, "game-1", "idle", buildtype.RaceZerg)

	// Assert
	require.NoError(t, err)
	assert.True(t, runner.Session().IsRunning())
	found, err := manager.Runner("game-1")
	require.NoError(t, err)
	assert.Same(t, runner, found)
}

func TestSessionManager_GeneratesIDWhenEmpty(t *testing.T) {
	manager, _ := newTestManager(t)

	runner, err := manager.StartSession(context.Background(), "", "idle", buildtype.RaceTerran)

	require.NoError(t, err)
	assert.Len(t, runner.Session().ID(), 36)
}

func TestSessionManager_RejectsRunningDuplicate(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	_, err := manager.StartSession(ctx, "game-1", "idle", buildtype.RaceZerg)
	require.NoError(t, err)

	_, err = manager.StartSession(ctx, "game-1", "idle", buildtype.RaceZerg)

	var sessionErr *shared.SessionError
	assert.ErrorAs(t, err, &sessionErr)
}

func TestSessionManager_RestartsStoppedSession(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	_, err := manager.StartSession(ctx, "game-1", "idle", buildtype.RaceZerg)
	require.NoError(t, err)
	require.NoError(t, manager.StopSession(ctx, "game-1"))

	runner, err := manager.StartSession(ctx, "game-1", "idle", buildtype.RaceZerg)

	require.NoError(t, err)
	assert.True(t, runner.Session().IsRunning())
}

func TestSessionManager_UnknownSession(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Runner("missing")

	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Error(t, manager.StopSession(context.Background(), "missing"))
}

func TestSessionManager_SessionsOldestFirstAndStopAll(t *testing.T) {
	// Arrange
	manager, clock := newTestManager(t)
	ctx := context.Background()
	_, err := manager.StartSession(ctx, "b", "idle", buildtype.RaceZerg)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = manager.StartSession(ctx, "a", "idle", buildtype.RaceZerg)
	require.NoError(t, err)

	// Act
	err = manager.StopAll(ctx)

	// Assert
	require.NoError(t, err)
	sessions := manager.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID())
	assert.Equal(t, "a", sessions[1].ID())
	for _, s := range sessions {
		assert.Equal(t, shared.LifecycleStatusStopped, s.Status())
	}
}
