package dispatch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

func newAction(t *testing.T, name string) (*dispatch.Action, *shared.MockClock) {
	t.Helper()
	catalog := helpers.NewTestCatalog()
	clock := shared.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	a := dispatch.NewAction("session-1", autobuild.BuildEntry{Type: catalog.MustLookup(name)}, 1, 0, clock)
	return a, clock
}

func TestAction_HappyPath(t *testing.T) {
	a, clock := newAction(t, "Terran_Barracks")
	require.Equal(t, dispatch.ActionStatusPending, a.Status())
	require.NotEmpty(t, a.ID())

	require.NoError(t, a.MarkDispatched("upc-7"))
	clock.Advance(time.Second)
	require.NoError(t, a.MarkStarted())
	require.NoError(t, a.MarkStarted())
	require.NoError(t, a.Complete())

	assert.Equal(t, dispatch.ActionStatusCompleted, a.Status())
	assert.Equal(t, "upc-7", a.Handle())
	require.NotNil(t, a.StartedAt())
	assert.Equal(t, clock.Now(), *a.StartedAt())
	assert.False(t, a.IsActive())
}

func TestAction_CancelIsIdempotent(t *testing.T) {
	a, _ := newAction(t, "Terran_Marine")
	require.NoError(t, a.MarkDispatched("h"))

	require.NoError(t, a.Cancel())
	require.NoError(t, a.Cancel())

	assert.Equal(t, dispatch.ActionStatusCancelled, a.Status())
}

func TestAction_StartedActionCannotBeCancelled(t *testing.T) {
	a, _ := newAction(t, "Terran_Marine")
	require.NoError(t, a.MarkDispatched("h"))
	require.NoError(t, a.MarkStarted())

	err := a.Cancel()

	var transitionErr *dispatch.ErrInvalidActionTransition
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, dispatch.ActionStatusStarted, transitionErr.From)
	assert.Equal(t, dispatch.ActionStatusStarted, a.Status())
}

func TestAction_InvalidTransitions(t *testing.T) {
	a, _ := newAction(t, "Terran_Marine")
	require.NoError(t, a.MarkDispatched("h"))

	assert.Error(t, a.MarkDispatched("again"))
	require.NoError(t, a.Fail("no builder"))
	assert.Error(t, a.Complete())
	assert.Error(t, a.MarkStarted())
	assert.Error(t, a.Fail("twice"))
	assert.Equal(t, "no builder", a.FailReason())
}

func TestAction_FireCommittedRunsOnce(t *testing.T) {
	catalog := helpers.NewTestCatalog()
	calls := 0
	entry := autobuild.BuildEntry{Type: catalog.MustLookup("Terran_SCV"), OnCommitted: func() { calls++ }}
	a := dispatch.NewAction("s", entry, 1, 0, nil)

	a.FireCommitted()
	a.FireCommitted()

	assert.Equal(t, 1, calls)
}

func TestAction_SetPriorityReportsChange(t *testing.T) {
	a, _ := newAction(t, "Terran_SCV")

	assert.False(t, a.SetPriority(1))
	assert.True(t, a.SetPriority(3))
	assert.Equal(t, 3, a.Priority())
}
