package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/commands"
	"github.com/andrescamacho/autobuild-go/internal/application/planner/queries"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// Handler exposes the planner mediator to the game client
type Handler struct {
	Mediator common.Mediator
	Catalog  *buildtype.Catalog
	// Planner is the configuration simulations run with.
	Planner planner.Config
	// CadenceFrames is how often clients are asked to send ticks.
	CadenceFrames int
}

// RegisterRoutes mounts the API on s
func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.GET("/healthz", h.healthz)

	api := s.Group("/api")
	api.POST("/simulate", h.simulate)

	sessions := api.Group("/sessions")
	sessions.GET("", h.listSessions)
	sessions.POST("", h.startSession)
	sessions.POST("/:id/stop", h.stopSession)
	sessions.POST("/:id/ticks", h.tick)
	sessions.GET("/:id/plan", h.plan)
	sessions.POST("/:id/units", h.observeUnits)
	sessions.POST("/:id/actions/:action_id/events", h.actionEvent)
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h Handler) startSession(c context.Context, ctx *app.RequestContext) {
	var body startSessionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Strategy == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "strategy is required")
		return
	}
	if _, err := buildtype.ParseRace(body.Race); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
		return
	}

	resp, err := h.Mediator.Send(c, &commands.StartSessionCommand{
		SessionID: body.SessionID,
		Strategy:  body.Strategy,
		Race:      body.Race,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	started := resp.(*commands.StartSessionResponse)
	ctx.JSON(consts.StatusCreated, map[string]interface{}{
		"session_id":     started.SessionID,
		"strategy":       started.Strategy,
		"race":           started.Race,
		"cadence_frames": h.CadenceFrames,
	})
}

func (h Handler) stopSession(c context.Context, ctx *app.RequestContext) {
	resp, err := h.Mediator.Send(c, &commands.StopSessionCommand{SessionID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	stopped := resp.(*commands.StopSessionResponse)
	ctx.JSON(consts.StatusOK, map[string]string{
		"session_id": stopped.SessionID,
		"status":     stopped.Status,
	})
}

func (h Handler) listSessions(c context.Context, ctx *app.RequestContext) {
	resp, err := h.Mediator.Send(c, &queries.ListSessionsQuery{})
	if err != nil {
		writeError(ctx, err)
		return
	}
	list := resp.(*queries.ListSessionsResponse)
	docs := make([]sessionDocument, 0, len(list.Sessions))
	for _, s := range list.Sessions {
		docs = append(docs, toSessionDocument(s))
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{"sessions": docs})
}

func (h Handler) tick(c context.Context, ctx *app.RequestContext) {
	doc, err := gamedata.DecodeSnapshotJSON(bytes.NewReader(ctx.Request.Body()))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}
	live, err := doc.Live(h.Catalog)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}

	resp, err := h.Mediator.Send(c, &commands.PlanTickCommand{
		SessionID: ctx.Param("id"),
		Input:     planner.TickInput{Snapshot: live, Income: doc.IncomeSample()},
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, toTickDocument(*resp.(*planner.TickReport)))
}

func (h Handler) plan(c context.Context, ctx *app.RequestContext) {
	resp, err := h.Mediator.Send(c, &queries.GetPlanQuery{SessionID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	result := resp.(*queries.GetPlanResponse)
	doc := planDocument{Found: result.Found, Board: result.Board}
	if result.Found {
		tick := toTickDocument(result.Report)
		doc.Tick = &tick
	}
	ctx.JSON(consts.StatusOK, doc)
}

func (h Handler) observeUnits(c context.Context, ctx *app.RequestContext) {
	var body observeUnitsRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	units := make([]planner.ObservedUnit, 0, len(body.Units))
	for i, u := range body.Units {
		t, err := h.Catalog.Get(u.Type)
		if err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "unknown_type", fmt.Sprintf("units[%d].type: %v", i, err))
			return
		}
		unit := planner.ObservedUnit{Type: t}
		if u.Constructing != "" {
			ct, err := h.Catalog.Get(u.Constructing)
			if err != nil {
				writeErrorBody(ctx, consts.StatusBadRequest, "unknown_type", fmt.Sprintf("units[%d].constructing: %v", i, err))
				return
			}
			unit.ConstructingType = ct
		}
		units = append(units, unit)
	}

	resp, err := h.Mediator.Send(c, &commands.ObserveUnitsCommand{SessionID: ctx.Param("id"), Units: units})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]int{"retired": resp.(*commands.ObserveUnitsResponse).Retired})
}

func (h Handler) actionEvent(c context.Context, ctx *app.RequestContext) {
	var body actionEventRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	event := commands.ActionEvent(body.Event)
	switch event {
	case commands.ActionEventStarted, commands.ActionEventCompleted, commands.ActionEventFailed:
	default:
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", fmt.Sprintf("unknown action event %q", body.Event))
		return
	}

	_, err := h.Mediator.Send(c, &commands.ActionEventCommand{
		SessionID: ctx.Param("id"),
		ActionID:  ctx.Param("action_id"),
		Event:     event,
		Reason:    body.Reason,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h Handler) simulate(c context.Context, ctx *app.RequestContext) {
	var body simulateRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Frames <= 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "frames must be positive")
		return
	}
	if len(body.Snapshot) == 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_snapshot", "snapshot is required")
		return
	}
	doc, err := gamedata.DecodeSnapshotJSON(bytes.NewReader(body.Snapshot))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}
	live, err := doc.Live(h.Catalog)
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}

	resp, err := h.Mediator.Send(c, &queries.SimulateQuery{
		Strategy: body.Strategy,
		Snapshot: live,
		Frames:   body.Frames,
		Config:   h.Planner,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, toSimulationDocument(live.Frame, resp.(*queries.SimulateResponse).Final))
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
