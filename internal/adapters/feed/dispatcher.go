package feed

import (
	"context"
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
)

// ErrNoExecutor is returned when no feed subscriber follows the session
type ErrNoExecutor struct {
	SessionID string
}

func (e *ErrNoExecutor) Error() string {
	return fmt.Sprintf("no executor subscribed to session %s", e.SessionID)
}

// Dispatcher hands actions to the game client over the feed. The client
// reports progress back through the HTTP API using the action ID, which
// doubles as the executor handle.
type Dispatcher struct {
	hub *Hub
}

// NewDispatcher creates a dispatcher publishing to hub
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

func actionMessage(a *dispatch.Action) *ActionMessage {
	msg := &ActionMessage{
		ID:       a.ID(),
		Type:     a.BuildType().Name,
		Priority: a.Priority(),
		Frame:    a.PlannedFrame(),
	}
	if pos := a.Position(); pos.IsSet() {
		msg.Position = &gamedata.PositionDocument{X: pos.X, Y: pos.Y}
	}
	return msg
}

func (d *Dispatcher) publish(kind string, a *dispatch.Action, priority int) error {
	msg := actionMessage(a)
	msg.Priority = priority
	sent, err := d.hub.Broadcast(Message{Type: kind, SessionID: a.SessionID(), Action: msg})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", kind, err)
	}
	if sent == 0 {
		return &ErrNoExecutor{SessionID: a.SessionID()}
	}
	return nil
}

// Dispatch implements dispatch.Dispatcher
func (d *Dispatcher) Dispatch(ctx context.Context, action *dispatch.Action) (string, error) {
	if err := d.publish(MessageDispatch, action, action.Priority()); err != nil {
		return "", err
	}
	return action.ID(), nil
}

// Cancel implements dispatch.Dispatcher
func (d *Dispatcher) Cancel(ctx context.Context, action *dispatch.Action) error {
	return d.publish(MessageCancel, action, action.Priority())
}

// SetPriority implements dispatch.Dispatcher
func (d *Dispatcher) SetPriority(ctx context.Context, action *dispatch.Action, priority int) error {
	return d.publish(MessagePriority, action, priority)
}

// TickListener publishes every committed plan
func (h *Hub) TickListener() planner.TickListener {
	return func(ctx context.Context, report planner.TickReport) {
		h.Broadcast(Message{
			Type:          MessagePlan,
			SessionID:     report.SessionID,
			Frame:         report.Frame,
			Plan:          gamedata.PlanDocuments(report.Plan, report.Frame),
			MaxGasWorkers: report.MaxGasWorkers,
			Aborted:       report.Aborted,
			AbortReason:   report.AbortReason,
		})
	}
}
