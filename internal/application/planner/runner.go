package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/internal/domain/income"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// planLogLimit is the number of plan entries echoed in tick logs.
const planLogLimit = 10

// TickInput is what the game client sends each planning tick
type TickInput struct {
	Snapshot autobuild.LiveSnapshot
	// Income, when present, feeds the income tracker. Its rates replace
	// the snapshot's when the snapshot carries none.
	Income *income.Sample
}

// TickReport summarizes one planning tick
type TickReport struct {
	SessionID     string
	Frame         int
	Plan          []autobuild.PlanItem
	Kept          int
	Dispatched    int
	Cancelled     int
	Reprioritized int
	DispatchErrs  int
	MaxGasWorkers int
	MacroInserted bool
	Aborted       bool
	AbortReason   string
	Duration      time.Duration
}

// ObservedUnit is a unit the game reports as newly created or as starting
// a morph.
type ObservedUnit struct {
	Type             *buildtype.BuildType
	ConstructingType *buildtype.BuildType
}

// TickListener is notified after every tick, aborted or not.
type TickListener func(ctx context.Context, report TickReport)

// RunnerConfig carries per-session options
type RunnerConfig struct {
	DispatchWindow      int
	AutoBuildRefineries bool
	AutoBuildHatcheries bool
}

// SessionRunner owns one planning session: it turns live snapshots into
// plans and keeps the executor's action set in line with them. Tick,
// ObserveNewUnits and the action callbacks are serialized.
type SessionRunner struct {
	mu sync.Mutex

	session    *session.Session
	catalog    *buildtype.Catalog
	planner    *Planner
	dispatcher dispatch.Dispatcher
	actions    dispatch.ActionRepository
	sessions   session.SessionRepository
	ticks      session.TickRepository
	income     *income.Tracker
	config     RunnerConfig
	clock      shared.Clock

	// tracked holds the in-process instances of dispatched actions, which
	// carry the strategy callbacks that persistence cannot.
	tracked   map[string]*dispatch.Action
	listeners []TickListener
	last      *TickReport
}

// NewSessionRunner wires a runner. sessions and ticks may be nil.
func NewSessionRunner(
	s *session.Session,
	catalog *buildtype.Catalog,
	planner *Planner,
	dispatcher dispatch.Dispatcher,
	actions dispatch.ActionRepository,
	sessions session.SessionRepository,
	ticks session.TickRepository,
	config RunnerConfig,
	clock shared.Clock,
) *SessionRunner {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if config.DispatchWindow <= 0 {
		config.DispatchWindow = dispatch.DefaultWindow
	}
	return &SessionRunner{
		session:    s,
		catalog:    catalog,
		planner:    planner,
		dispatcher: dispatcher,
		actions:    actions,
		sessions:   sessions,
		ticks:      ticks,
		income:     income.NewTracker(),
		config:     config,
		clock:      clock,
		tracked:    make(map[string]*dispatch.Action),
	}
}

// Session returns the session entity
func (r *SessionRunner) Session() *session.Session { return r.session }

// Planner returns the session planner
func (r *SessionRunner) Planner() *Planner { return r.planner }

// Catalog returns the session catalog
func (r *SessionRunner) Catalog() *buildtype.Catalog { return r.catalog }

// OnTick registers a listener
func (r *SessionRunner) OnTick(l TickListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// LastReport returns the most recent tick report, if any
func (r *SessionRunner) LastReport() (TickReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return TickReport{}, false
	}
	return *r.last, true
}

func (r *SessionRunner) context(ctx context.Context) context.Context {
	return common.WithSessionID(ctx, r.session.ID())
}

// Start moves the session to RUNNING and persists it
func (r *SessionRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.session.Start(); err != nil {
		return err
	}
	return r.saveSession(ctx)
}

// Stop halts the session and withdraws every action that has not started
func (r *SessionRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = r.context(ctx)

	if err := r.session.Stop(); err != nil {
		return err
	}
	active, err := r.actions.FindActive(ctx, r.session.ID())
	if err != nil {
		return fmt.Errorf("failed to load active actions: %w", err)
	}
	for _, a := range active {
		if a.Status() == dispatch.ActionStatusStarted {
			continue
		}
		r.cancel(ctx, a)
	}
	return r.saveSession(ctx)
}

// Tick runs one planning tick. A strategy panic aborts only this tick:
// the report has Aborted set, the error is nil and the executor's actions
// are left untouched.
func (r *SessionRunner) Tick(ctx context.Context, in TickInput) (*TickReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = r.context(ctx)
	logger := common.LoggerFromContext(ctx)
	started := r.clock.Now()

	if !r.session.IsRunning() {
		return nil, &ErrSessionNotRunning{SessionID: r.session.ID(), Status: string(r.session.Status())}
	}

	snap := in.Snapshot
	if in.Income != nil {
		rates := r.income.Update(*in.Income)
		if snap.MineralsPerFramePerGatherer <= 0 {
			snap.MineralsPerFramePerGatherer = rates.MineralsPerFramePerGatherer
		}
		if snap.GasPerFramePerGatherer <= 0 {
			snap.GasPerFramePerGatherer = rates.GasPerFramePerGatherer
		}
	}

	st := autobuild.FromSnapshot(r.catalog, snap)
	st.AutoBuildRefineries = r.config.AutoBuildRefineries
	st.AutoBuildHatcheries = r.config.AutoBuildHatcheries

	report := &TickReport{SessionID: r.session.ID(), Frame: snap.Frame}

	eval, err := r.planner.Evaluate(ctx, st)
	if err != nil {
		var aborted *ErrHookAborted
		if !errors.As(err, &aborted) {
			return nil, err
		}
		logger.Log(common.LevelWarning, aborted.Error(), map[string]interface{}{
			"frame": snap.Frame,
			"hook":  aborted.Hook,
		})
		r.session.RecordAbort(snap.Frame, aborted.Error())
		report.Aborted = true
		report.AbortReason = aborted.Error()
		report.Duration = r.clock.Now().Sub(started)
		r.finish(ctx, report)
		return report, nil
	}

	active, err := r.actions.FindActive(ctx, r.session.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load active actions: %w", err)
	}
	diff := dispatch.Reconcile(active, eval.Plan, snap.Frame, r.config.DispatchWindow)
	r.apply(ctx, diff, report)

	report.Plan = eval.Plan
	report.MaxGasWorkers = eval.MaxGasWorkers
	report.MacroInserted = eval.MacroInserted

	if err := r.session.RecordTick(snap.Frame); err != nil {
		return nil, err
	}
	report.Duration = r.clock.Now().Sub(started)

	logger.Log(common.LevelInfo, fmt.Sprintf("Planned %d entries at %s", len(eval.Plan), shared.FormatGameTime(snap.Frame)), map[string]interface{}{
		"frame":         snap.Frame,
		"plan_length":   len(eval.Plan),
		"dispatched":    report.Dispatched,
		"cancelled":     report.Cancelled,
		"reprioritized": report.Reprioritized,
		"gas_workers":   eval.MaxGasWorkers,
	})
	if r.planner.config.Verbose {
		head := eval.Plan
		if len(head) > planLogLimit {
			head = head[:planLogLimit]
		}
		logger.Log(common.LevelDebug, st.Describe(), nil)
		logger.Log(common.LevelDebug, "Queue:\n"+autobuild.DescribePlan(head, snap.Frame), map[string]interface{}{
			"unlisted": len(eval.Plan) - len(head),
		})
	}

	r.finish(ctx, report)
	return report, nil
}

// apply pushes a reconciliation diff to the executor and the repository.
// New entries are dispatched in plan order before stale ones are
// cancelled. Executor errors are logged and counted, never fatal.
func (r *SessionRunner) apply(ctx context.Context, diff dispatch.Diff, report *TickReport) {
	logger := common.LoggerFromContext(ctx)

	for _, a := range diff.Dropped {
		delete(r.tracked, a.ID())
	}
	report.Kept = len(diff.Keep)

	for _, rp := range diff.Reprioritize {
		a := rp.Action
		if !a.SetPriority(rp.Priority) {
			continue
		}
		if tracked, ok := r.tracked[a.ID()]; ok && tracked != a {
			tracked.SetPriority(rp.Priority)
		}
		if err := r.dispatcher.SetPriority(ctx, a, rp.Priority); err != nil {
			report.DispatchErrs++
			logger.Log(common.LevelError, fmt.Sprintf("Failed to reprioritize %s: %v", a.BuildType(), err), map[string]interface{}{
				"action_id": a.ID(),
			})
		}
		r.save(ctx, a)
		report.Reprioritized++
	}

	for _, nd := range diff.Dispatch {
		a := dispatch.NewAction(r.session.ID(), nd.Entry, nd.Priority, nd.Frame, r.clock)
		handle, err := r.dispatcher.Dispatch(ctx, a)
		if err != nil {
			report.DispatchErrs++
			_ = a.Fail(err.Error())
			logger.Log(common.LevelError, fmt.Sprintf("Failed to dispatch %s: %v", nd.Entry, err), map[string]interface{}{
				"action_id": a.ID(),
				"priority":  nd.Priority,
			})
			r.save(ctx, a)
			continue
		}
		_ = a.MarkDispatched(handle)
		r.tracked[a.ID()] = a
		r.save(ctx, a)
		report.Dispatched++
	}

	for _, a := range diff.Cancel {
		r.cancel(ctx, a)
		report.Cancelled++
	}
}

func (r *SessionRunner) cancel(ctx context.Context, a *dispatch.Action) {
	logger := common.LoggerFromContext(ctx)
	if a.Status() == dispatch.ActionStatusDispatched {
		if err := r.dispatcher.Cancel(ctx, a); err != nil {
			logger.Log(common.LevelError, fmt.Sprintf("Failed to cancel %s: %v", a.BuildType(), err), map[string]interface{}{
				"action_id": a.ID(),
			})
		}
	}
	if err := a.Cancel(); err != nil {
		logger.Log(common.LevelWarning, err.Error(), map[string]interface{}{"action_id": a.ID()})
		return
	}
	delete(r.tracked, a.ID())
	r.save(ctx, a)
}

func (r *SessionRunner) save(ctx context.Context, a *dispatch.Action) {
	if err := r.actions.Save(ctx, a); err != nil {
		common.LoggerFromContext(ctx).Log(common.LevelError, fmt.Sprintf("Failed to save action: %v", err), map[string]interface{}{
			"action_id": a.ID(),
		})
	}
}

func (r *SessionRunner) saveSession(ctx context.Context) error {
	if r.sessions == nil {
		return nil
	}
	if err := r.sessions.Save(ctx, r.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRunner) finish(ctx context.Context, report *TickReport) {
	logger := common.LoggerFromContext(ctx)
	if err := r.saveSession(ctx); err != nil {
		logger.Log(common.LevelError, err.Error(), nil)
	}
	if r.ticks != nil {
		record := session.TickRecord{
			SessionID:     report.SessionID,
			Frame:         report.Frame,
			PlanLength:    len(report.Plan),
			Dispatched:    report.Dispatched,
			Cancelled:     report.Cancelled,
			Reprioritized: report.Reprioritized,
			MaxGasWorkers: report.MaxGasWorkers,
			Aborted:       report.Aborted,
			Duration:      report.Duration,
			RecordedAt:    r.clock.Now(),
		}
		if err := r.ticks.Append(ctx, record); err != nil {
			logger.Log(common.LevelError, fmt.Sprintf("Failed to record tick: %v", err), nil)
		}
	}
	last := *report
	r.last = &last
	for _, l := range r.listeners {
		l(ctx, last)
	}
}

// ObserveNewUnits retires the action each new unit fulfils. Eggs count as
// the type they are constructing. The oldest matching action fires its
// callback and completes; it is never cancelled. It returns how many
// actions were retired.
func (r *SessionRunner) ObserveNewUnits(ctx context.Context, units []ObservedUnit) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = r.context(ctx)

	active, err := r.actions.FindActive(ctx, r.session.ID())
	if err != nil {
		return 0, fmt.Errorf("failed to load active actions: %w", err)
	}

	retired := 0
	for _, u := range units {
		t := u.Type
		if t != nil && t.IsEgg {
			t = u.ConstructingType
		}
		if t == nil {
			continue
		}
		for i, a := range active {
			if a.BuildType() != t {
				continue
			}
			if tracked, ok := r.tracked[a.ID()]; ok {
				tracked.FireCommitted()
				delete(r.tracked, a.ID())
			} else {
				a.FireCommitted()
			}
			if err := a.Complete(); err == nil {
				r.save(ctx, a)
			}
			active = append(active[:i], active[i+1:]...)
			retired++
			break
		}
	}
	return retired, nil
}

// ActionStarted records the executor's start signal. Started actions are
// never cancelled by later ticks.
func (r *SessionRunner) ActionStarted(ctx context.Context, actionID string) error {
	return r.transition(ctx, actionID, func(a *dispatch.Action) error { return a.MarkStarted() })
}

// ActionCompleted records that the executor finished an action
func (r *SessionRunner) ActionCompleted(ctx context.Context, actionID string) error {
	return r.transition(ctx, actionID, func(a *dispatch.Action) error { return a.Complete() })
}

// ActionFailed records that the executor gave up on an action. The next
// tick will dispatch the entry again if it is still planned.
func (r *SessionRunner) ActionFailed(ctx context.Context, actionID, reason string) error {
	return r.transition(ctx, actionID, func(a *dispatch.Action) error { return a.Fail(reason) })
}

func (r *SessionRunner) transition(ctx context.Context, actionID string, fn func(a *dispatch.Action) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx = r.context(ctx)

	a, err := r.actions.FindByID(ctx, r.session.ID(), actionID)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	if tracked, ok := r.tracked[actionID]; ok && tracked != a {
		_ = fn(tracked)
	}
	if a.Status().IsTerminal() {
		delete(r.tracked, actionID)
	}
	if err := r.actions.Save(ctx, a); err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}
	return nil
}
