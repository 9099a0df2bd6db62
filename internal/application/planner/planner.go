package planner

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

const (
	// DefaultHorizonFrames is the look-ahead of one planning tick (four
	// game minutes).
	DefaultHorizonFrames = 15 * 60 * 4
	// DefaultGasWindowFrames is the slice of the plan used to estimate gas
	// gatherers (two game minutes).
	DefaultGasWindowFrames = 15 * 60 * 2
	// MaxGasWorkers caps the gas gatherer estimate.
	MaxGasWorkers = 90

	// macroPrebuildAfter is the game time after which macro capacity is
	// started half a build time early.
	macroPrebuildAfter = 24 * 60 * 6
	// macroSlotThreshold: macro capacity is only added while fewer slot
	// units than this are owned or coming.
	macroSlotThreshold = 3
)

// Config tunes one planner
type Config struct {
	HorizonFrames         int
	GasWindowFrames       int
	DepbuildHorizonFrames int
	// ManualGas keeps gas gatherer counts posted by someone else.
	ManualGas bool
	// Verbose routes resolver traces to the context logger at DEBUG.
	Verbose bool
}

// DefaultConfig returns the stock planner settings
func DefaultConfig() Config {
	return Config{
		HorizonFrames:         DefaultHorizonFrames,
		GasWindowFrames:       DefaultGasWindowFrames,
		DepbuildHorizonFrames: autobuild.DefaultDepbuildHorizon,
	}
}

// Evaluation is the outcome of one Evaluate call
type Evaluation struct {
	Initial *autobuild.SimState
	Final   *autobuild.SimState
	// Plan is Final's committed plan, including any macro capacity entry.
	Plan []autobuild.PlanItem
	// Steps counts BuildStep invocations that committed something.
	Steps int

	MacroInserted bool
	MacroFrame    int
	MaxGasWorkers int
}

// Planner runs a strategy against simulated states
type Planner struct {
	strategy Strategy
	board    *Blackboard
	config   Config
}

// NewPlanner creates a planner. A nil board gets a private one.
func NewPlanner(strategy Strategy, board *Blackboard, config Config) *Planner {
	if board == nil {
		board = NewBlackboard()
	}
	if config.HorizonFrames <= 0 {
		config.HorizonFrames = DefaultHorizonFrames
	}
	if config.GasWindowFrames <= 0 {
		config.GasWindowFrames = DefaultGasWindowFrames
	}
	return &Planner{strategy: strategy, board: board, config: config}
}

// Strategy returns the planned build order
func (p *Planner) Strategy() Strategy { return p.strategy }

// Board returns the blackboard the planner posts to
func (p *Planner) Board() *Blackboard { return p.board }

func (p *Planner) resolver(ctx context.Context) autobuild.Resolver {
	r := autobuild.Resolver{Horizon: p.config.DepbuildHorizonFrames}
	if p.config.Verbose {
		logger := common.LoggerFromContext(ctx)
		r.Trace.Sink = func(depth int, message string) {
			logger.Log(common.LevelDebug, strings.Repeat("  ", depth)+message, nil)
		}
	}
	return r
}

// runHook calls fn and converts a panic into *ErrHookAborted.
func (p *Planner) runHook(hook string, frame int, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ErrHookAborted{Strategy: p.strategy.Name(), Hook: hook, Frame: frame, Cause: r}
		}
	}()
	fn()
	return nil
}

// Evaluate plans HorizonFrames ahead of initial and posts the gas
// gatherer estimate. initial is not modified. A panicking hook aborts the
// evaluation with *ErrHookAborted; the blackboard keeps what the hooks
// posted before the panic.
func (p *Planner) Evaluate(ctx context.Context, initial *autobuild.SimState) (*Evaluation, error) {
	logger := common.LoggerFromContext(ctx)
	st := initial.Clone()
	endFrame := st.Frame + p.config.HorizonFrames
	resolver := p.resolver(ctx)
	b := newBuilder(st, p.board, false)

	slotUnit := st.Catalog().SlotUnit()
	macroType := baseSlotProvider(st.Catalog())
	firstMacroFrame, macroDue := 0, false

	p.board.Remove(KeyMinGasWorkers)
	p.board.Remove(KeyMaxGasWorkers)

	if err := p.runHook("PreBuild", st.Frame, func() { p.strategy.PreBuild(b) }); err != nil {
		return nil, err
	}

	eval := &Evaluation{Initial: initial}
	previousToLast := st.Clone()
	for st.Frame < endFrame {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation interrupted at frame %d: %w", st.Frame, err)
		}
		if !macroDue && macroType != nil && slotUnit != nil &&
			st.Minerals >= float64(macroType.MineralCost) && st.CountPlusProduction(slotUnit) == 0 {
			firstMacroFrame, macroDue = st.Frame, true
		}

		b.chain.Reset()
		if err := p.runHook("BuildStep", st.Frame, func() { p.strategy.BuildStep(b) }); err != nil {
			return nil, err
		}
		if !b.chain.Run(resolver, st) {
			break
		}
		eval.Steps++
		previousToLast = st.Clone()
	}

	if err := p.runHook("PostBuild", st.Frame, func() { p.strategy.PostBuild(b) }); err != nil {
		return nil, err
	}

	// Macro capacity answers a simulation that stalled on slots, so a tick
	// that committed nothing never gets one.
	if macroDue && eval.Steps > 0 && initial.AutoBuildHatcheries && initial.Race == macroType.Race &&
		previousToLast.Minerals >= float64(macroType.MineralCost) &&
		previousToLast.CountPlusProduction(slotUnit) < macroSlotThreshold &&
		initial.CountPlusProduction(slotUnit) < macroSlotThreshold {
		frame := firstMacroFrame
		if frame > macroPrebuildAfter {
			frame -= macroType.BuildTime / 2
		}
		st.InsertPlan(frame, autobuild.BuildEntry{Type: macroType})
		eval.MacroInserted = true
		eval.MacroFrame = frame
		logger.Log(common.LevelInfo, fmt.Sprintf("Adding macro %s at %d", macroType.Name, frame), map[string]interface{}{
			"frame": frame,
			"type":  macroType.Name,
		})
	}

	eval.MaxGasWorkers = EstimateGasWorkers(initial, st.CommittedPlan, p.config.GasWindowFrames)
	if !p.config.ManualGas || !p.board.Has(KeyMinGasWorkers) {
		p.board.Post(KeyMinGasWorkers, 0)
	}
	if !p.config.ManualGas || !p.board.Has(KeyMaxGasWorkers) {
		p.board.Post(KeyMaxGasWorkers, eval.MaxGasWorkers)
	}

	eval.Final = st
	eval.Plan = st.CommittedPlan
	return eval, nil
}

// SimEvaluateFor runs the strategy against st for frames without posting
// anything, then passes whatever time is left. It returns the resulting
// state; st is not modified.
func (p *Planner) SimEvaluateFor(ctx context.Context, st *autobuild.SimState, frames int) (*autobuild.SimState, error) {
	cur := st.Clone()
	endFrame := cur.Frame + frames
	resolver := p.resolver(ctx)
	b := newBuilder(cur, p.board, true)

	if err := p.runHook("PreBuild", cur.Frame, func() { p.strategy.PreBuild(b) }); err != nil {
		return nil, err
	}

	var previousToLast *autobuild.SimState
	for cur.Frame < endFrame {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation interrupted at frame %d: %w", cur.Frame, err)
		}
		previousToLast = cur.Clone()

		b.chain.Reset()
		if err := p.runHook("BuildStep", cur.Frame, func() { p.strategy.BuildStep(b) }); err != nil {
			return nil, err
		}
		if !b.chain.Run(resolver, cur) {
			break
		}
	}

	if err := p.runHook("PostBuild", cur.Frame, func() { p.strategy.PostBuild(b) }); err != nil {
		return nil, err
	}

	if cur.Frame > endFrame && previousToLast != nil {
		cur = previousToLast
	}
	if cur.Frame < endFrame {
		autobuild.Advance(cur, autobuild.BuildEntry{}, endFrame)
	}
	return cur, nil
}

// EstimateGasWorkers derives how many gas gatherers the plan needs from
// the gas it spends within window frames of initial. The result is the
// highest rate seen over any prefix of that window, capped at
// MaxGasWorkers.
func EstimateGasWorkers(initial *autobuild.SimState, plan []autobuild.PlanItem, window int) int {
	now := initial.Frame
	best := 0
	spent := -initial.Gas
	for _, item := range plan {
		if item.Frame >= now+window {
			break
		}
		spent += float64(item.Entry.Type.GasCost)
		elapsed := item.Frame - now
		if elapsed <= 0 || initial.GasPerFramePerGatherer <= 0 {
			continue
		}
		g := math.Round(spent / float64(elapsed) / initial.GasPerFramePerGatherer)
		if g > MaxGasWorkers {
			g = MaxGasWorkers
		} else if g < 0 || math.IsNaN(g) {
			g = 0
		}
		if int(g) > best {
			best = int(g)
		}
	}
	return best
}

// baseSlotProvider is the first tier of the slot provider lineage, the
// type added as macro capacity.
func baseSlotProvider(catalog *buildtype.Catalog) *buildtype.BuildType {
	providers := catalog.SlotProviders()
	if len(providers) == 0 {
		return nil
	}
	return providers[len(providers)-1]
}
