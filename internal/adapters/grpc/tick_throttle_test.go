package grpc_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adaptergrpc "github.com/andrescamacho/autobuild-go/internal/adapters/grpc"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/commands"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/queries"
)

func reflectTypeOf(v interface{}) reflect.Type { return reflect.TypeOf(v) }

func newThrottledMediator(t *testing.T, ratePerSecond float64, burst int) common.Mediator {
	t.Helper()
	m := common.NewMediator()
	m.Use(adaptergrpc.NewTickThrottle(ratePerSecond, burst))
	require.NoError(t, common.RegisterHandler[*commands.PlanTickCommand](m, &captureHandler{}))
	require.NoError(t, common.RegisterHandler[*queries.ListSessionsQuery](m, &captureHandler{}))
	return m
}

func TestTickThrottle_AllowsBurst(t *testing.T) {
	// Arrange
	m := newThrottledMediator(t, 1, 3)
	ctx := context.Background()

	// Act & Assert
	for i := 0; i < 3; i++ {
		_, err := m.Send(ctx, &commands.PlanTickCommand{SessionID: "game-1"})
		require.NoError(t, err)
	}
}

func TestTickThrottle_CancelledWaitFails(t *testing.T) {
	// Arrange
	m := newThrottledMediator(t, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, tickErr := m.Send(ctx, &commands.PlanTickCommand{SessionID: "game-1"})
	_, listErr := m.Send(ctx, &queries.ListSessionsQuery{})

	// Assert
	require.Error(t, tickErr)
	assert.Contains(t, tickErr.Error(), "tick throttled")
	assert.NoError(t, listErr)
}
