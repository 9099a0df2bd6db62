package steps

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

// schedulerContext carries one scenario's simulated state through the
// scheduling and reconciliation steps
type schedulerContext struct {
	catalog  *buildtype.Catalog
	st       *autobuild.SimState
	before   *autobuild.SimState
	resolver autobuild.Resolver
	trace    []string

	advanceResult autobuild.AdvanceResult
	resolved      bool
	aloneFrame    int

	strategy   *helpers.FuncStrategy
	evaluation *planner.Evaluation

	active  []*dispatch.Action
	started *dispatch.Action
	diff    dispatch.Diff
}

func (sc *schedulerContext) reset() {
	*sc = schedulerContext{}
}

func (sc *schedulerContext) lookup(name string) (*buildtype.BuildType, error) {
	if sc.catalog == nil {
		return nil, fmt.Errorf("no catalog set up")
	}
	return sc.catalog.Get(name)
}

// plan is the planner's result when a strategy ran, otherwise the plan
// committed directly on the state
func (sc *schedulerContext) plan() []autobuild.PlanItem {
	if sc.evaluation != nil {
		return sc.evaluation.Plan
	}
	if sc.st == nil {
		return nil
	}
	return sc.st.CommittedPlan
}

func (sc *schedulerContext) traced() autobuild.Resolver {
	r := sc.resolver
	r.Trace = autobuild.Trace{Sink: func(depth int, message string) {
		sc.trace = append(sc.trace, fmt.Sprintf("%d %s", depth, message))
	}}
	return r
}

// Given steps

func (sc *schedulerContext) aTerranBaseWithMinerals(minerals int) error {
	sc.catalog = helpers.NewTestCatalog()
	sc.st = helpers.NewTestState(sc.catalog, buildtype.RaceTerran, float64(minerals), map[string]int{
		"Terran_Command_Center": 1,
		"Terran_SCV":            4,
	})
	return nil
}

func (sc *schedulerContext) aZergBaseWithMinerals(minerals int) error {
	sc.catalog = helpers.NewTestCatalog()
	sc.st = helpers.NewTestState(sc.catalog, buildtype.RaceZerg, float64(minerals), map[string]int{
		"Zerg_Hatchery": 1,
		"Zerg_Drone":    4,
	})
	return nil
}

func (sc *schedulerContext) theBaseAlsoHas(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	sc.st.AddUnit(t)
	return nil
}

func (sc *schedulerContext) theBaseAlsoHasUnits(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		name := cellValue(table, row, "type")
		count, err := strconv.Atoi(cellValue(table, row, "count"))
		if err != nil {
			return fmt.Errorf("count of %s: %w", name, err)
		}
		t, err := sc.lookup(name)
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			sc.st.AddUnit(t)
		}
	}
	return nil
}

func (sc *schedulerContext) aCatalogWhereTypesRequireEachOther(x, y string) error {
	sc.catalog = buildtype.MustNewCatalog([]buildtype.Definition{
		{Name: "Worker", Race: "terran", MineralCost: 50, SupplyRequired: 1, BuildTime: 300, Builder: "Base", Worker: true},
		{Name: "Base", Race: "terran", MineralCost: 400, SupplyProvided: 10, BuildTime: 1800, Builder: "Worker", ResourceDepot: true},
		{Name: x, Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Prerequisites: []string{y}},
		{Name: y, Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Prerequisites: []string{x}},
		{Name: "Depot", Race: "terran", MineralCost: 100, SupplyProvided: 8, BuildTime: 600, Builder: "Worker", SupplyDepot: true},
		{Name: "Refinery", Race: "terran", MineralCost: 100, BuildTime: 600, Builder: "Worker", Refinery: true},
	})
	sc.st = helpers.NewTestState(sc.catalog, buildtype.RaceTerran, 1000, map[string]int{"Base": 1, "Worker": 4})
	return nil
}

func (sc *schedulerContext) aDependencyHorizonOfFrames(frames int) error {
	sc.resolver.Horizon = frames
	return nil
}

func (sc *schedulerContext) aStrategyBuildingThen(n int, first string, m int, second string) error {
	a, err := sc.lookup(first)
	if err != nil {
		return err
	}
	b, err := sc.lookup(second)
	if err != nil {
		return err
	}
	sc.strategy = &helpers.FuncStrategy{
		StrategyName: "bdd",
		Step: func(builder *planner.Builder) {
			builder.BuildN(a, n)
			builder.BuildN(b, m)
		},
	}
	return nil
}

// When steps

func (sc *schedulerContext) iRunAnEmptyRequestChain() error {
	sc.before = sc.st.Clone()
	var chain autobuild.RequestChain
	if chain.Run(sc.resolver, sc.st) {
		return fmt.Errorf("an empty chain reported progress")
	}
	return nil
}

func (sc *schedulerContext) iAdvanceARequestFor(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	sc.advanceResult = autobuild.Advance(sc.st, autobuild.BuildEntry{Type: t}, sc.st.Frame+autobuild.DefaultDepbuildHorizon)
	return nil
}

func (sc *schedulerContext) iScheduleAlone(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	alone := sc.st.Clone()
	if !sc.resolver.Depbuild(alone, alone.Clone(), autobuild.BuildEntry{Type: t}) {
		return fmt.Errorf("%s could not be scheduled alone", name)
	}
	frame, ok := frameOf(alone.CommittedPlan, t)
	if !ok {
		return fmt.Errorf("%s missing from its own plan", name)
	}
	sc.aloneFrame = frame
	return nil
}

func (sc *schedulerContext) iScheduleWithRidingAlong(priorityName, restName string) error {
	priority, err := sc.lookup(priorityName)
	if err != nil {
		return err
	}
	rest, err := sc.lookup(restName)
	if err != nil {
		return err
	}
	r := sc.resolver
	ok := r.Nodelay(sc.st, autobuild.BuildEntry{Type: priority}, func(st *autobuild.SimState) bool {
		return r.Depbuild(st, st.Clone(), autobuild.BuildEntry{Type: rest})
	})
	if !ok {
		return fmt.Errorf("nothing was scheduled")
	}
	return nil
}

func (sc *schedulerContext) thePlannerRunsAStrategyBuilding(n int, name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	sc.strategy = &helpers.FuncStrategy{
		StrategyName: "bdd",
		Step: func(builder *planner.Builder) {
			builder.BuildN(t, n)
		},
	}
	return sc.evaluate()
}

func (sc *schedulerContext) thePlannerRunsAStrategyBuildingThen(n int, first string, m int, second string) error {
	if err := sc.aStrategyBuildingThen(n, first, m, second); err != nil {
		return err
	}
	return sc.evaluate()
}

func (sc *schedulerContext) evaluate() error {
	if sc.strategy == nil {
		return fmt.Errorf("no strategy set up")
	}
	eval, err := planner.NewPlanner(sc.strategy, nil, planner.DefaultConfig()).Evaluate(context.Background(), sc.st)
	if err != nil {
		return err
	}
	sc.evaluation = eval
	return nil
}

func (sc *schedulerContext) iResolveDependenciesFor(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	sc.resolved = sc.traced().Depbuild(sc.st, sc.st.Clone(), autobuild.BuildEntry{Type: t})
	return nil
}

// Then steps

func (sc *schedulerContext) theCommittedPlanShouldBeEmpty() error {
	if plan := sc.plan(); len(plan) != 0 {
		return fmt.Errorf("expected an empty plan, got %s", autobuild.DescribePlan(plan, 0))
	}
	return nil
}

func (sc *schedulerContext) theSimulatedStateShouldBeUnchanged() error {
	before, after := sc.before.Describe(), sc.st.Describe()
	if before != after || sc.before.Frame != sc.st.Frame || sc.before.Minerals != sc.st.Minerals {
		return fmt.Errorf("state changed:\nbefore %s\nafter  %s", before, after)
	}
	return nil
}

func (sc *schedulerContext) theAdvanceOutcomeShouldBe(expected string) error {
	if got := sc.advanceResult.Outcome.String(); got != expected {
		return fmt.Errorf("expected outcome %s, got %s", expected, sc.advanceResult)
	}
	return nil
}

func (sc *schedulerContext) theMineralsShouldBeExactly(expected int) error {
	if sc.st.Minerals != float64(expected) {
		return fmt.Errorf("expected %d minerals, got %.2f", expected, sc.st.Minerals)
	}
	return nil
}

func (sc *schedulerContext) theMineralsShouldNotBeNegative() error {
	if sc.st.Minerals < 0 {
		return fmt.Errorf("minerals went negative: %.2f", sc.st.Minerals)
	}
	return nil
}

func (sc *schedulerContext) theCommittedPlanShouldListAtFrame(name string, frame int) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	got, ok := frameOf(sc.plan(), t)
	if !ok {
		return fmt.Errorf("%s is not in the plan", name)
	}
	if got != frame {
		return fmt.Errorf("expected %s at frame %d, got %d", name, frame, got)
	}
	return nil
}

func (sc *schedulerContext) theLastCommittedFrameShouldBeAfter(frame int) error {
	plan := sc.plan()
	if len(plan) == 0 {
		return fmt.Errorf("nothing committed")
	}
	if last := plan[len(plan)-1].Frame; last <= frame {
		return fmt.Errorf("expected a commit after frame %d, got %d", frame, last)
	}
	return nil
}

func (sc *schedulerContext) theCommittedPlanShouldContain(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	if _, ok := frameOf(sc.plan(), t); !ok {
		return fmt.Errorf("%s is not in the plan: %s", name, autobuild.DescribePlan(sc.plan(), 0))
	}
	return nil
}

func (sc *schedulerContext) usedSupplyShouldStayWithinCapacity() error {
	if sc.evaluation == nil {
		return fmt.Errorf("the planner did not run")
	}
	final := sc.evaluation.Final
	race := final.Race
	used := final.UsedSupply[race]
	capacity := final.MaxSupply[race] + final.InProductionSupply[race]
	if used > capacity || used > autobuild.SupplyCap {
		return fmt.Errorf("used supply %.1f exceeds capacity %.1f", used, capacity)
	}
	return nil
}

func (sc *schedulerContext) shouldBeCommittedAtTheSameFrameAsAlone(name string) error {
	t, err := sc.lookup(name)
	if err != nil {
		return err
	}
	frame, ok := frameOf(sc.plan(), t)
	if !ok {
		return fmt.Errorf("%s is not in the plan", name)
	}
	if frame != sc.aloneFrame {
		return fmt.Errorf("%s delayed: frame %d instead of %d", name, frame, sc.aloneFrame)
	}
	return nil
}

func (sc *schedulerContext) theCommittedPlanShouldHaveEntries(n int) error {
	if got := len(sc.plan()); got != n {
		return fmt.Errorf("expected %d entries, got %d: %s", n, got, autobuild.DescribePlan(sc.plan(), 0))
	}
	return nil
}

func (sc *schedulerContext) entryOfThePlanShouldBeAtFrame(index int, name string, frame int) error {
	if err := sc.entryOfThePlanShouldBe(index, name); err != nil {
		return err
	}
	if got := sc.plan()[index-1].Frame; got != frame {
		return fmt.Errorf("expected entry %d at frame %d, got %d", index, frame, got)
	}
	return nil
}

func (sc *schedulerContext) entryOfThePlanShouldBe(index int, name string) error {
	plan := sc.plan()
	if index < 1 || index > len(plan) {
		return fmt.Errorf("plan has %d entries, no entry %d", len(plan), index)
	}
	if got := plan[index-1].Entry.Type.Name; got != name {
		return fmt.Errorf("expected entry %d to be %s, got %s", index, name, got)
	}
	return nil
}

func (sc *schedulerContext) theCommittedPlanFramesShouldBeStrictlyIncreasing() error {
	plan := sc.plan()
	for i := 1; i < len(plan); i++ {
		if plan[i].Frame <= plan[i-1].Frame {
			return fmt.Errorf("frame %d of entry %d does not follow frame %d", plan[i].Frame, i+1, plan[i-1].Frame)
		}
	}
	return nil
}

func (sc *schedulerContext) dependencyResolutionShouldFail() error {
	if sc.resolved {
		return fmt.Errorf("expected resolution to fail, plan: %s", autobuild.DescribePlan(sc.st.CommittedPlan, 0))
	}
	return nil
}

func (sc *schedulerContext) resolutionShouldFinishWithinTraceLines(n int) error {
	if len(sc.trace) == 0 || len(sc.trace) > n {
		return fmt.Errorf("expected 1 to %d trace lines, got %d:\n%s", n, len(sc.trace), strings.Join(sc.trace, "\n"))
	}
	return nil
}

func (sc *schedulerContext) theLastTraceLineShouldMention(text string) error {
	if len(sc.trace) == 0 {
		return fmt.Errorf("no trace recorded")
	}
	if last := sc.trace[len(sc.trace)-1]; !strings.Contains(last, text) {
		return fmt.Errorf("expected %q in last trace line %q", text, last)
	}
	return nil
}

func (sc *schedulerContext) theSimulatedFrameShouldBe(frame int) error {
	if sc.st.Frame != frame {
		return fmt.Errorf("expected frame %d, got %d", frame, sc.st.Frame)
	}
	return nil
}

func cellValue(table *godog.Table, row *messages.PickleTableRow, column string) string {
	for i, cell := range table.Rows[0].Cells {
		if cell.Value == column && i < len(row.Cells) {
			return row.Cells[i].Value
		}
	}
	return ""
}

func frameOf(plan []autobuild.PlanItem, t *buildtype.BuildType) (int, bool) {
	frame := math.MinInt
	for _, item := range plan {
		if item.Entry.Type == t {
			frame = item.Frame
		}
	}
	return frame, frame != math.MinInt
}

// InitializeSchedulerScenario registers the scheduling and reconciliation steps
func InitializeSchedulerScenario(ctx *godog.ScenarioContext) {
	sc := &schedulerContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a terran base with (\d+) minerals$`, sc.aTerranBaseWithMinerals)
	ctx.Step(`^a zerg base with (\d+) minerals$`, sc.aZergBaseWithMinerals)
	ctx.Step(`^the base also has a "([^"]*)"$`, sc.theBaseAlsoHas)
	ctx.Step(`^the base also has:$`, sc.theBaseAlsoHasUnits)
	ctx.Step(`^a catalog where "([^"]*)" and "([^"]*)" require each other$`, sc.aCatalogWhereTypesRequireEachOther)
	ctx.Step(`^a dependency horizon of (\d+) frames$`, sc.aDependencyHorizonOfFrames)
	ctx.Step(`^a strategy building (\d+) "([^"]*)" and then (\d+) "([^"]*)"$`, sc.aStrategyBuildingThen)

	// When steps
	ctx.Step(`^I run an empty request chain$`, sc.iRunAnEmptyRequestChain)
	ctx.Step(`^I advance a request for "([^"]*)"$`, sc.iAdvanceARequestFor)
	ctx.Step(`^I schedule "([^"]*)" alone$`, sc.iScheduleAlone)
	ctx.Step(`^I schedule "([^"]*)" with "([^"]*)" riding along$`, sc.iScheduleWithRidingAlong)
	ctx.Step(`^the planner runs a strategy building (\d+) "([^"]*)" and then (\d+) "([^"]*)"$`, sc.thePlannerRunsAStrategyBuildingThen)
	ctx.Step(`^the planner runs a strategy building (\d+) "([^"]*)"$`, sc.thePlannerRunsAStrategyBuilding)
	ctx.Step(`^I resolve dependencies for "([^"]*)"$`, sc.iResolveDependenciesFor)

	// Then steps
	ctx.Step(`^the committed plan should be empty$`, sc.theCommittedPlanShouldBeEmpty)
	ctx.Step(`^the simulated state should be unchanged$`, sc.theSimulatedStateShouldBeUnchanged)
	ctx.Step(`^the advance outcome should be "([^"]*)"$`, sc.theAdvanceOutcomeShouldBe)
	ctx.Step(`^the minerals should be exactly (\d+)$`, sc.theMineralsShouldBeExactly)
	ctx.Step(`^the minerals should not be negative$`, sc.theMineralsShouldNotBeNegative)
	ctx.Step(`^the committed plan should list "([^"]*)" at frame (\d+)$`, sc.theCommittedPlanShouldListAtFrame)
	ctx.Step(`^the last committed frame should be after frame (\d+)$`, sc.theLastCommittedFrameShouldBeAfter)
	ctx.Step(`^the committed plan should contain "([^"]*)"$`, sc.theCommittedPlanShouldContain)
	ctx.Step(`^used supply should stay within capacity in the final state$`, sc.usedSupplyShouldStayWithinCapacity)
	ctx.Step(`^"([^"]*)" should be committed at the same frame as when scheduled alone$`, sc.shouldBeCommittedAtTheSameFrameAsAlone)
	ctx.Step(`^the committed plan should have (\d+) entries$`, sc.theCommittedPlanShouldHaveEntries)
	ctx.Step(`^entry (\d+) of the committed plan should be "([^"]*)" at frame (\d+)$`, sc.entryOfThePlanShouldBeAtFrame)
	ctx.Step(`^entry (\d+) of the committed plan should be "([^"]*)"$`, sc.entryOfThePlanShouldBe)
	ctx.Step(`^the committed plan frames should be strictly increasing$`, sc.theCommittedPlanFramesShouldBeStrictlyIncreasing)
	ctx.Step(`^dependency resolution should fail$`, sc.dependencyResolutionShouldFail)
	ctx.Step(`^resolution should finish within (\d+) trace lines$`, sc.resolutionShouldFinishWithinTraceLines)
	ctx.Step(`^the last trace line should mention "([^"]*)"$`, sc.theLastTraceLineShouldMention)
	ctx.Step(`^the simulated frame should be (\d+)$`, sc.theSimulatedFrameShouldBe)

	registerReconciliationSteps(ctx, sc)
}
