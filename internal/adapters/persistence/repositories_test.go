package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newRepos(t *testing.T) (*helpers.TestRepositories, *buildtype.Catalog, *shared.MockClock) {
	t.Helper()
	catalog := helpers.NewTestCatalog()
	clock := shared.NewMockClock(epoch)
	return helpers.NewTestRepositories(helpers.NewTestDB(t), catalog, clock), catalog, clock
}

func TestActionRepository_SaveAndFind(t *testing.T) {
	// Arrange
	repos, catalog, clock := newRepos(t)
	ctx := context.Background()
	entry := autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Spawning_Pool"), Pos: autobuild.Position{X: 30, Y: 62}}
	action := dispatch.NewAction("game-1", entry, 1, 480, clock)
	require.NoError(t, action.MarkDispatched("upc-1"))

	// Act
	require.NoError(t, repos.Actions.Save(ctx, action))
	found, err := repos.Actions.FindByID(ctx, "game-1", action.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, action.ID(), found.ID())
	assert.Same(t, catalog.MustLookup("Zerg_Spawning_Pool"), found.BuildType())
	assert.Equal(t, autobuild.Position{X: 30, Y: 62}, found.Position())
	assert.Equal(t, dispatch.ActionStatusDispatched, found.Status())
	assert.Equal(t, "upc-1", found.Handle())
	assert.Equal(t, 480, found.PlannedFrame())
	assert.WithinDuration(t, epoch, found.CreatedAt(), time.Second)
	assert.True(t, found.Matches(entry))
}

func TestActionRepository_SaveUpdatesExistingRow(t *testing.T) {
	// Arrange
	repos, catalog, clock := newRepos(t)
	ctx := context.Background()
	action := dispatch.NewAction("game-1", autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Drone")}, 2, 0, clock)
	require.NoError(t, repos.Actions.Save(ctx, action))

	// Act
	clock.Advance(3 * time.Second)
	require.NoError(t, action.Fail("no larva"))
	require.NoError(t, repos.Actions.Save(ctx, action))
	found, err := repos.Actions.FindByID(ctx, "game-1", action.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, dispatch.ActionStatusFailed, found.Status())
	assert.Equal(t, "no larva", found.FailReason())
	require.NotNil(t, found.CompletedAt())
	assert.WithinDuration(t, epoch.Add(3*time.Second), *found.CompletedAt(), time.Second)

	var rows int64
	require.NoError(t, repos.DB.Model(&persistence.ActionModel{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestActionRepository_FindByIDScopedToSession(t *testing.T) {
	// Arrange
	repos, catalog, clock := newRepos(t)
	ctx := context.Background()
	action := dispatch.NewAction("game-1", autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Drone")}, 1, 0, clock)
	require.NoError(t, repos.Actions.Save(ctx, action))

	// Act
	_, err := repos.Actions.FindByID(ctx, "game-2", action.ID())

	// Assert
	var notFound *dispatch.ErrActionNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, action.ID(), notFound.ActionID)
}

func TestActionRepository_FindActiveAndCounts(t *testing.T) {
	// Arrange
	repos, catalog, clock := newRepos(t)
	ctx := context.Background()
	drone := autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Drone")}
	overlord := autobuild.BuildEntry{Type: catalog.MustLookup("Zerg_Overlord")}

	first := dispatch.NewAction("game-1", drone, 1, 0, clock)
	clock.Advance(time.Second)
	second := dispatch.NewAction("game-1", overlord, 2, 100, clock)
	clock.Advance(time.Second)
	done := dispatch.NewAction("game-1", drone, 3, 200, clock)
	require.NoError(t, done.Complete())
	other := dispatch.NewAction("game-2", drone, 1, 0, clock)
	require.NoError(t, second.MarkStarted())

	for _, a := range []*dispatch.Action{second, first, done, other} {
		require.NoError(t, repos.Actions.Save(ctx, a))
	}

	// Act
	active, err := repos.Actions.FindActive(ctx, "game-1")
	require.NoError(t, err)
	counts, err := repos.Actions.CountByStatus(ctx, "game-1")
	require.NoError(t, err)

	// Assert
	require.Len(t, active, 2)
	assert.Equal(t, first.ID(), active[0].ID())
	assert.Equal(t, second.ID(), active[1].ID())
	assert.Equal(t, map[dispatch.ActionStatus]int{
		dispatch.ActionStatusPending:   1,
		dispatch.ActionStatusStarted:   1,
		dispatch.ActionStatusCompleted: 1,
	}, counts)
}

func TestActionRepository_UnknownTypeOnLoad(t *testing.T) {
	// Arrange
	repos, _, _ := newRepos(t)
	require.NoError(t, repos.DB.Create(&persistence.ActionModel{
		ID: "a-1", SessionID: "game-1", BuildType: "Zerg_Ultralisk", Priority: 1,
		Status: string(dispatch.ActionStatusPending), CreatedAt: epoch, UpdatedAt: epoch,
	}).Error)

	// Act
	_, err := repos.Actions.FindActive(context.Background(), "game-1")

	// Assert
	var unknown *buildtype.ErrUnknownType
	require.ErrorAs(t, err, &unknown)
}

func TestSessionRepository_SaveFindList(t *testing.T) {
	// Arrange
	repos, _, clock := newRepos(t)
	ctx := context.Background()
	older, err := session.NewSession("game-1", "nine_pool", buildtype.RaceZerg, clock)
	require.NoError(t, err)
	require.NoError(t, older.Start())
	require.NoError(t, older.RecordTick(720))
	older.RecordAbort(735, "strategy nine_pool BuildStep panicked")

	clock.Advance(time.Minute)
	newer, err := session.NewSession("game-2", "terran_bio", buildtype.RaceTerran, clock)
	require.NoError(t, err)

	// Act
	require.NoError(t, repos.Sessions.Save(ctx, older))
	require.NoError(t, repos.Sessions.Save(ctx, newer))
	found, findErr := repos.Sessions.FindByID(ctx, "game-1")
	list, listErr := repos.Sessions.List(ctx)
	_, missingErr := repos.Sessions.FindByID(ctx, "game-9")

	// Assert
	require.NoError(t, findErr)
	assert.Equal(t, "nine_pool", found.Strategy())
	assert.Equal(t, buildtype.RaceZerg, found.Race())
	assert.Equal(t, shared.LifecycleStatusRunning, found.Status())
	assert.Equal(t, 1, found.Ticks())
	assert.Equal(t, 1, found.AbortedTicks())
	assert.Equal(t, 735, found.LastFrame())
	assert.Contains(t, found.LastAbort(), "panicked")
	require.NotNil(t, found.StartedAt())

	require.NoError(t, listErr)
	require.Len(t, list, 2)
	assert.Equal(t, "game-2", list[0].ID())
	assert.Equal(t, "game-1", list[1].ID())

	var notFound *shared.NotFoundError
	require.ErrorAs(t, missingErr, &notFound)
	assert.Equal(t, "session", notFound.Kind)
}

func TestTickRepository_RecentNewestFirst(t *testing.T) {
	// Arrange
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, repos.Ticks.Append(ctx, session.TickRecord{
			SessionID:  "game-1",
			Frame:      i * 15,
			PlanLength: i,
			Dispatched: 1,
			Aborted:    i == 3,
			Duration:   time.Duration(i) * time.Millisecond,
			RecordedAt: epoch,
		}))
	}
	require.NoError(t, repos.Ticks.Append(ctx, session.TickRecord{SessionID: "game-2", Frame: 1, RecordedAt: epoch}))

	// Act
	recent, err := repos.Ticks.Recent(ctx, "game-1", 3)

	// Assert
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 60, recent[0].Frame)
	assert.Equal(t, 45, recent[1].Frame)
	assert.True(t, recent[1].Aborted)
	assert.Equal(t, 30, recent[2].Frame)
	assert.Equal(t, 4*time.Millisecond, recent[0].Duration)
}

func TestPlannerLogRepository_DeduplicatesWithinWindow(t *testing.T) {
	// Arrange
	repos, _, clock := newRepos(t)
	ctx := context.Background()

	// Act
	require.NoError(t, repos.PlannerLog.Log(ctx, "game-1", "Supply blocked", "WARNING", map[string]interface{}{"frame": 900}))
	clock.Advance(30 * time.Second)
	require.NoError(t, repos.PlannerLog.Log(ctx, "game-1", "Supply blocked", "WARNING", nil))
	require.NoError(t, repos.PlannerLog.Log(ctx, "game-2", "Supply blocked", "WARNING", nil))
	clock.Advance(31 * time.Second)
	require.NoError(t, repos.PlannerLog.Log(ctx, "game-1", "Supply blocked", "WARNING", nil))

	logs, err := repos.PlannerLog.GetLogs(ctx, "game-1", 10, 0, nil, nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Nil(t, logs[0].Metadata)
	assert.Equal(t, float64(900), logs[1].Metadata["frame"])
}

func TestPlannerLogRepository_FiltersAndPages(t *testing.T) {
	// Arrange
	repos, _, clock := newRepos(t)
	ctx := context.Background()
	messages := []struct{ level, message string }{
		{"INFO", "tick 1"},
		{"DEBUG", "resolver trace"},
		{"INFO", "tick 2"},
		{"INFO", "tick 3"},
	}
	for _, m := range messages {
		clock.Advance(time.Second)
		require.NoError(t, repos.PlannerLog.Log(ctx, "game-1", m.message, m.level, nil))
	}
	info := "INFO"
	since := epoch.Add(1500 * time.Millisecond)

	// Act
	page, err := repos.PlannerLog.GetLogs(ctx, "game-1", 1, 1, &info, nil)
	require.NoError(t, err)
	recent, err := repos.PlannerLog.GetLogs(ctx, "game-1", 10, 0, nil, &since)
	require.NoError(t, err)

	// Assert
	require.Len(t, page, 1)
	assert.Equal(t, "tick 2", page[0].Message)
	require.Len(t, recent, 3)
	assert.Equal(t, "tick 3", recent[0].Message)
	assert.Equal(t, "resolver trace", recent[2].Message)
}
