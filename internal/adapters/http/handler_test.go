package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/andrescamacho/autobuild-go/internal/adapters/http"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/application/setup"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

const openingSnapshot = `{
	"frame": 0,
	"minerals": 300,
	"used_supply": 4,
	"max_supply": 9,
	"mineral_rate": 0.05,
	"gas_rate": 0.07,
	"units": [
		{"type": "Zerg_Hatchery"},
		{"type": "Zerg_Drone", "count": 4}
	]
}`

type apiFixture struct {
	tm  *helpers.TestManager
	srv *httpadapter.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tm := helpers.NewTestManager(clock)
	require.NoError(t, tm.Registry.Register("pool", func(c *buildtype.Catalog) (planner.Strategy, error) {
		return &helpers.FuncStrategy{
			StrategyName: "pool",
			Step: func(b *planner.Builder) {
				b.BuildN(c.MustLookup("Zerg_Hatchery"), 2)
				b.BuildN(c.MustLookup("Zerg_Spawning_Pool"), 1)
			},
		}, nil
	}))

	m := common.NewMediator()
	require.NoError(t, setup.NewHandlerRegistry(tm.Manager).RegisterPlannerHandlers(m))

	handler := httpadapter.Handler{
		Mediator:      m,
		Catalog:       tm.Manager.Catalog(),
		Planner:       planner.DefaultConfig(),
		CadenceFrames: 15,
	}
	return &apiFixture{tm: tm, srv: httpadapter.NewServer("127.0.0.1:0", 0, handler)}
}

func (f *apiFixture) do(t *testing.T, method, url, body string) (int, map[string]interface{}) {
	t.Helper()
	w := ut.PerformRequest(f.srv.Hertz().Engine, method, url,
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	resp := w.Result()

	var out map[string]interface{}
	if len(resp.Body()) > 0 {
		require.NoError(t, json.Unmarshal(resp.Body(), &out), string(resp.Body()))
	}
	return resp.StatusCode(), out
}

func (f *apiFixture) startSession(t *testing.T, id, strategy string) {
	t.Helper()
	status, body := f.do(t, consts.MethodPost, "/api/sessions",
		`{"session_id":"`+id+`","strategy":"`+strategy+`","race":"zerg"}`)
	require.Equal(t, consts.StatusCreated, status, body)
}

func errorCode(body map[string]interface{}) string {
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func TestHandler_Healthz(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, consts.MethodGet, "/healthz", "")

	assert.Equal(t, consts.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHandler_StartAndListSessions(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)

	// Act
	status, started := f.do(t, consts.MethodPost, "/api/sessions",
		`{"session_id":"game-1","strategy":"idle","race":"Zerg"}`)
	listStatus, list := f.do(t, consts.MethodGet, "/api/sessions", "")

	// Assert
	require.Equal(t, consts.StatusCreated, status)
	assert.Equal(t, "game-1", started["session_id"])
	assert.Equal(t, "idle", started["strategy"])
	assert.Equal(t, "zerg", started["race"])
	assert.Equal(t, float64(15), started["cadence_frames"])

	require.Equal(t, consts.StatusOK, listStatus)
	sessions, ok := list["sessions"].([]interface{})
	require.True(t, ok)
	require.Len(t, sessions, 1)
	doc := sessions[0].(map[string]interface{})
	assert.Equal(t, "game-1", doc["id"])
	assert.Equal(t, "RUNNING", doc["status"])
}

func TestHandler_StartSessionRejectsBadInput(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid json", `{"strategy":`, consts.StatusBadRequest, "invalid_json"},
		{"empty body", ``, consts.StatusBadRequest, "bad_request"},
		{"unknown race", `{"strategy":"idle","race":"orc"}`, consts.StatusBadRequest, "bad_request"},
		{"unknown strategy", `{"strategy":"12pool","race":"zerg"}`, consts.StatusBadRequest, "unknown_strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)

			status, body := f.do(t, consts.MethodPost, "/api/sessions", tt.body)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
		})
	}
}

func TestHandler_StartSessionConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "idle")

	status, body := f.do(t, consts.MethodPost, "/api/sessions",
		`{"session_id":"game-1","strategy":"idle","race":"zerg"}`)

	assert.Equal(t, consts.StatusConflict, status)
	assert.Equal(t, "session_conflict", errorCode(body))
}

func TestHandler_TickDispatchesAndExposesPlan(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "pool")

	// Act
	status, tick := f.do(t, consts.MethodPost, "/api/sessions/game-1/ticks", openingSnapshot)
	planStatus, plan := f.do(t, consts.MethodGet, "/api/sessions/game-1/plan", "")

	// Assert
	require.Equal(t, consts.StatusOK, status, tick)
	assert.Equal(t, "game-1", tick["session_id"])
	assert.Equal(t, float64(1), tick["dispatched"])
	assert.Equal(t, "0:00", tick["game_time"])
	items, ok := tick["plan"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, []string{"Zerg_Spawning_Pool"}, f.tm.Dispatcher.DispatchedTypes())

	require.Equal(t, consts.StatusOK, planStatus)
	assert.Equal(t, true, plan["found"])
	require.NotNil(t, plan["tick"])
}

func TestHandler_PlanBeforeFirstTick(t *testing.T) {
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "idle")

	status, plan := f.do(t, consts.MethodGet, "/api/sessions/game-1/plan", "")

	require.Equal(t, consts.StatusOK, status)
	assert.Equal(t, false, plan["found"])
	assert.Nil(t, plan["tick"])
}

func TestHandler_TickErrors(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown session",
			url:        "/api/sessions/missing/ticks",
			body:       openingSnapshot,
			wantStatus: consts.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "unknown field",
			url:        "/api/sessions/game-1/ticks",
			body:       `{"frame": 0, "supply": 4}`,
			wantStatus: consts.StatusBadRequest,
			wantCode:   "invalid_snapshot",
		},
		{
			name:       "unknown unit type",
			url:        "/api/sessions/game-1/ticks",
			body:       `{"frame": 0, "units": [{"type": "Zerg_Defiler"}]}`,
			wantStatus: consts.StatusBadRequest,
			wantCode:   "invalid_snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.startSession(t, "game-1", "idle")

			status, body := f.do(t, consts.MethodPost, tt.url, tt.body)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
		})
	}
}

func TestHandler_StopSession(t *testing.T) {
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "idle")

	status, body := f.do(t, consts.MethodPost, "/api/sessions/game-1/stop", "")

	require.Equal(t, consts.StatusOK, status)
	assert.Equal(t, "game-1", body["session_id"])
	assert.Equal(t, "STOPPED", body["status"])
}

func TestHandler_ObserveUnits(t *testing.T) {
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "idle")

	status, body := f.do(t, consts.MethodPost, "/api/sessions/game-1/units",
		`{"units":[{"type":"Zerg_Egg","constructing":"Zerg_Drone"},{"type":"Zerg_Drone"}]}`)
	badStatus, bad := f.do(t, consts.MethodPost, "/api/sessions/game-1/units",
		`{"units":[{"type":"Zerg_Drone"},{"type":"Zerg_Egg","constructing":"Zerg_Defiler"}]}`)

	require.Equal(t, consts.StatusOK, status, body)
	assert.Contains(t, body, "retired")
	assert.Equal(t, consts.StatusBadRequest, badStatus)
	assert.Equal(t, "unknown_type", errorCode(bad))
}

func TestHandler_ActionEventLifecycle(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "pool")
	status, _ := f.do(t, consts.MethodPost, "/api/sessions/game-1/ticks", openingSnapshot)
	require.Equal(t, consts.StatusOK, status)
	actions := f.tm.Actions.All()
	require.Len(t, actions, 1)
	eventsURL := "/api/sessions/game-1/actions/" + actions[0].ID() + "/events"

	// Act
	startedStatus, _ := f.do(t, consts.MethodPost, eventsURL, `{"event":"started"}`)
	completedStatus, _ := f.do(t, consts.MethodPost, eventsURL, `{"event":"completed"}`)
	againStatus, again := f.do(t, consts.MethodPost, eventsURL, `{"event":"started"}`)

	// Assert
	assert.Equal(t, consts.StatusOK, startedStatus)
	assert.Equal(t, consts.StatusOK, completedStatus)
	assert.Equal(t, dispatch.ActionStatusCompleted, f.tm.Actions.All()[0].Status())
	assert.Equal(t, consts.StatusConflict, againStatus)
	assert.Equal(t, "invalid_transition", errorCode(again))
}

func TestHandler_ActionEventErrors(t *testing.T) {
	f := newAPIFixture(t)
	f.startSession(t, "game-1", "idle")

	unknownStatus, unknown := f.do(t, consts.MethodPost, "/api/sessions/game-1/actions/a-1/events", `{"event":"exploded"}`)
	missingStatus, missing := f.do(t, consts.MethodPost, "/api/sessions/game-1/actions/a-1/events", `{"event":"failed","reason":"no builder"}`)

	assert.Equal(t, consts.StatusBadRequest, unknownStatus)
	assert.Equal(t, "bad_request", errorCode(unknown))
	assert.Equal(t, consts.StatusNotFound, missingStatus)
	assert.Equal(t, "not_found", errorCode(missing))
}

func TestHandler_Simulate(t *testing.T) {
	// Arrange
	f := newAPIFixture(t)
	body := `{"strategy":"pool","frames":600,"snapshot":` + openingSnapshot + `}`

	// Act
	status, sim := f.do(t, consts.MethodPost, "/api/simulate", body)

	// Assert
	require.Equal(t, consts.StatusOK, status, sim)
	assert.NotEmpty(t, sim["game_time"])
	assert.NotEmpty(t, sim["state"])
	assert.Empty(t, f.tm.Dispatcher.DispatchedTypes())
}

func TestHandler_SimulateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no frames", `{"strategy":"pool","snapshot":` + openingSnapshot + `}`, consts.StatusBadRequest, "bad_request"},
		{"no snapshot", `{"strategy":"pool","frames":10}`, consts.StatusBadRequest, "invalid_snapshot"},
		{"unknown strategy", `{"strategy":"12pool","frames":10,"snapshot":` + openingSnapshot + `}`, consts.StatusBadRequest, "unknown_strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)

			status, body := f.do(t, consts.MethodPost, "/api/simulate", tt.body)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
		})
	}
}

func TestHandler_CORSPreflight(t *testing.T) {
	f := newAPIFixture(t)

	w := ut.PerformRequest(f.srv.Hertz().Engine, consts.MethodOptions, "/api/sessions", nil)
	resp := w.Result()

	assert.Equal(t, consts.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "*", string(resp.Header.Peek("Access-Control-Allow-Origin")))
}
