package httpadapter

import (
	"encoding/json"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

type startSessionRequest struct {
	SessionID string `json:"session_id"`
	Strategy  string `json:"strategy"`
	Race      string `json:"race"`
}

type observedUnitRequest struct {
	Type         string `json:"type"`
	Constructing string `json:"constructing,omitempty"`
}

type observeUnitsRequest struct {
	Units []observedUnitRequest `json:"units"`
}

type actionEventRequest struct {
	Event  string `json:"event"`
	Reason string `json:"reason,omitempty"`
}

type simulateRequest struct {
	Strategy string `json:"strategy"`
	Frames   int    `json:"frames"`
	// Snapshot is decoded strictly against the snapshot schema.
	Snapshot json.RawMessage `json:"snapshot"`
}

type sessionDocument struct {
	ID           string     `json:"id"`
	Strategy     string     `json:"strategy"`
	Race         string     `json:"race"`
	Status       string     `json:"status"`
	Ticks        int        `json:"ticks"`
	AbortedTicks int        `json:"aborted_ticks"`
	LastFrame    int        `json:"last_frame"`
	LastAbort    string     `json:"last_abort,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
}

func toSessionDocument(s *session.Session) sessionDocument {
	return sessionDocument{
		ID:           s.ID(),
		Strategy:     s.Strategy(),
		Race:         s.Race().String(),
		Status:       string(s.Status()),
		Ticks:        s.Ticks(),
		AbortedTicks: s.AbortedTicks(),
		LastFrame:    s.LastFrame(),
		LastAbort:    s.LastAbort(),
		CreatedAt:    s.CreatedAt(),
		StartedAt:    s.StartedAt(),
		StoppedAt:    s.StoppedAt(),
	}
}

type tickDocument struct {
	SessionID     string                      `json:"session_id"`
	Frame         int                         `json:"frame"`
	GameTime      string                      `json:"game_time"`
	Plan          []gamedata.PlanItemDocument `json:"plan"`
	Kept          int                         `json:"kept"`
	Dispatched    int                         `json:"dispatched"`
	Cancelled     int                         `json:"cancelled"`
	Reprioritized int                         `json:"reprioritized"`
	DispatchErrs  int                         `json:"dispatch_errors"`
	MaxGasWorkers int                         `json:"max_gas_workers"`
	MacroInserted bool                        `json:"macro_inserted"`
	Aborted       bool                        `json:"aborted"`
	AbortReason   string                      `json:"abort_reason,omitempty"`
	DurationMicro int64                       `json:"duration_us"`
}

func toTickDocument(r planner.TickReport) tickDocument {
	return tickDocument{
		SessionID:     r.SessionID,
		Frame:         r.Frame,
		GameTime:      shared.FormatGameTime(r.Frame),
		Plan:          gamedata.PlanDocuments(r.Plan, r.Frame),
		Kept:          r.Kept,
		Dispatched:    r.Dispatched,
		Cancelled:     r.Cancelled,
		Reprioritized: r.Reprioritized,
		DispatchErrs:  r.DispatchErrs,
		MaxGasWorkers: r.MaxGasWorkers,
		MacroInserted: r.MacroInserted,
		Aborted:       r.Aborted,
		AbortReason:   r.AbortReason,
		DurationMicro: r.Duration.Microseconds(),
	}
}

type planDocument struct {
	Found bool                   `json:"found"`
	Tick  *tickDocument          `json:"tick,omitempty"`
	Board map[string]interface{} `json:"board"`
}

type simulationDocument struct {
	Frame    int                         `json:"frame"`
	GameTime string                      `json:"game_time"`
	Minerals float64                     `json:"minerals"`
	Gas      float64                     `json:"gas"`
	Plan     []gamedata.PlanItemDocument `json:"plan"`
	State    string                      `json:"state"`
}

func toSimulationDocument(start int, final *autobuild.SimState) simulationDocument {
	return simulationDocument{
		Frame:    final.Frame,
		GameTime: shared.FormatGameTime(final.Frame),
		Minerals: final.Minerals,
		Gas:      final.Gas,
		Plan:     gamedata.PlanDocuments(final.CommittedPlan, start),
		State:    final.Describe(),
	}
}
