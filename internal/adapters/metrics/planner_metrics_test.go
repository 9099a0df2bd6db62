package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/adapters/metrics"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/queries"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

func newRegisteredCollector(t *testing.T, getSessions func() []*session.Session) *metrics.PlannerMetricsCollector {
	t.Helper()
	metrics.InitRegistry()
	t.Cleanup(func() { metrics.Registry = nil })
	collector := metrics.NewPlannerMetricsCollector(getSessions)
	require.NoError(t, collector.Register())
	return collector
}

func TestPlannerMetrics_RecordTick(t *testing.T) {
	// Arrange
	collector := newRegisteredCollector(t, nil)
	listener := collector.TickListener()
	ctx := context.Background()

	// Act
	listener(ctx, planner.TickReport{SessionID: "game-1", Dispatched: 3, MaxGasWorkers: 3, Duration: 4 * time.Millisecond})
	listener(ctx, planner.TickReport{SessionID: "game-1", Cancelled: 1, Reprioritized: 2, MacroInserted: true})
	listener(ctx, planner.TickReport{SessionID: "game-1", Aborted: true, AbortReason: "BuildStep panicked"})

	// Assert
	expected := `
# HELP autobuild_planner_ticks_total Planning ticks by session and outcome
# TYPE autobuild_planner_ticks_total counter
autobuild_planner_ticks_total{outcome="aborted",session_id="game-1"} 1
autobuild_planner_ticks_total{outcome="planned",session_id="game-1"} 2
# HELP autobuild_planner_actions_total Executor actions changed by reconciliation
# TYPE autobuild_planner_actions_total counter
autobuild_planner_actions_total{change="cancelled",session_id="game-1"} 1
autobuild_planner_actions_total{change="dispatched",session_id="game-1"} 3
autobuild_planner_actions_total{change="reprioritized",session_id="game-1"} 2
# HELP autobuild_planner_macro_inserted_total Ticks that added macro production capacity
# TYPE autobuild_planner_macro_inserted_total counter
autobuild_planner_macro_inserted_total{session_id="game-1"} 1
`
	err := testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected),
		"autobuild_planner_ticks_total",
		"autobuild_planner_actions_total",
		"autobuild_planner_macro_inserted_total",
	)
	assert.NoError(t, err)
}

func TestPlannerMetrics_SessionStatusGauge(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	running, err := session.NewSession("game-1", "idle", buildtype.RaceZerg, clock)
	require.NoError(t, err)
	require.NoError(t, running.Start())
	stopped, err := session.NewSession("game-2", "idle", buildtype.RaceZerg, clock)
	require.NoError(t, err)
	require.NoError(t, stopped.Start())
	require.NoError(t, stopped.Stop())

	collector := newRegisteredCollector(t, func() []*session.Session {
		return []*session.Session{running, stopped}
	})

	// Act
	collector.UpdateSessionMetrics()

	// Assert
	expected := `
# HELP autobuild_planner_sessions_total Planning sessions by status
# TYPE autobuild_planner_sessions_total gauge
autobuild_planner_sessions_total{status="RUNNING"} 1
autobuild_planner_sessions_total{status="STOPPED"} 1
`
	err = testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "autobuild_planner_sessions_total")
	assert.NoError(t, err)
}

func TestPlannerMetrics_StartStop(t *testing.T) {
	calls := make(chan struct{}, 10)
	collector := newRegisteredCollector(t, func() []*session.Session {
		calls <- struct{}{}
		return nil
	})

	collector.Start(context.Background(), time.Hour)
	<-calls
	collector.Stop()
}

type okHandler struct{}

func (okHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	return request, nil
}

type failingHandler struct{}

func (failingHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	return nil, errors.New("session not found")
}

func TestPrometheusMiddleware_CountsRequests(t *testing.T) {
	// Arrange
	collector := newRegisteredCollector(t, nil)
	m := common.NewMediator()
	m.Use(metrics.PrometheusMiddleware(collector))
	require.NoError(t, common.RegisterHandler[*queries.ListSessionsQuery](m, okHandler{}))
	require.NoError(t, common.RegisterHandler[*queries.GetPlanQuery](m, failingHandler{}))
	ctx := context.Background()

	// Act
	_, _ = m.Send(ctx, &queries.ListSessionsQuery{})
	_, _ = m.Send(ctx, &queries.ListSessionsQuery{})
	_, _ = m.Send(ctx, &queries.GetPlanQuery{SessionID: "missing"})

	// Assert
	expected := `
# HELP autobuild_planner_requests_total Total number of commands and queries by type and status
# TYPE autobuild_planner_requests_total counter
autobuild_planner_requests_total{request="GetPlanQuery",status="error"} 1
autobuild_planner_requests_total{request="ListSessionsQuery",status="success"} 2
`
	err := testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "autobuild_planner_requests_total")
	assert.NoError(t, err)
}

func TestPrometheusMiddleware_NilCollectorPassesThrough(t *testing.T) {
	m := common.NewMediator()
	m.Use(metrics.PrometheusMiddleware(nil))
	require.NoError(t, common.RegisterHandler[*queries.ListSessionsQuery](m, okHandler{}))

	resp, err := m.Send(context.Background(), &queries.ListSessionsQuery{})

	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestHandler_ServesRegistry(t *testing.T) {
	collector := newRegisteredCollector(t, nil)
	collector.RecordRequest("PlanTickCommand", 0.002, true)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `autobuild_planner_requests_total{request="PlanTickCommand",status="success"} 1`)
}

func TestHandler_DisabledReturnsNotFound(t *testing.T) {
	metrics.Registry = nil

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
