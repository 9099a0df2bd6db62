package steps

import (
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/autobuild-go/internal/domain/autobuild"
	"github.com/andrescamacho/autobuild-go/internal/domain/dispatch"
)

const bddSession = "bdd-session"

func (sc *schedulerContext) reconcile(plan []autobuild.PlanItem) {
	sc.diff = dispatch.Reconcile(sc.active, plan, sc.st.Frame, dispatch.DefaultWindow)
}

func (sc *schedulerContext) newActionFor(name string) (*dispatch.Action, error) {
	t, err := sc.lookup(name)
	if err != nil {
		return nil, err
	}
	a := dispatch.NewAction(bddSession, autobuild.BuildEntry{Type: t}, len(sc.active)+1, sc.st.Frame, nil)
	if err := a.MarkDispatched(fmt.Sprintf("h-%d", len(sc.active)+1)); err != nil {
		return nil, err
	}
	return a, nil
}

func (sc *schedulerContext) aStartedActionFor(name string) error {
	a, err := sc.newActionFor(name)
	if err != nil {
		return err
	}
	if err := a.MarkStarted(); err != nil {
		return err
	}
	sc.active = append(sc.active, a)
	sc.started = a
	return nil
}

func (sc *schedulerContext) aDispatchedActionFor(name string) error {
	a, err := sc.newActionFor(name)
	if err != nil {
		return err
	}
	sc.active = append(sc.active, a)
	return nil
}

func (sc *schedulerContext) iPlanATickAndDispatchEveryActionDue() error {
	if err := sc.evaluate(); err != nil {
		return err
	}
	sc.reconcile(sc.evaluation.Plan)
	for i, d := range sc.diff.Dispatch {
		a := dispatch.NewAction(bddSession, d.Entry, d.Priority, d.Frame, nil)
		if err := a.MarkDispatched(fmt.Sprintf("h-%d", i+1)); err != nil {
			return err
		}
		sc.active = append(sc.active, a)
	}
	if len(sc.active) == 0 {
		return fmt.Errorf("nothing was due on the first tick")
	}
	return nil
}

func (sc *schedulerContext) iPlanTheSameTickAgain() error {
	if err := sc.evaluate(); err != nil {
		return err
	}
	sc.reconcile(sc.evaluation.Plan)
	return nil
}

func (sc *schedulerContext) iReconcileAgainstAnEmptyPlan() error {
	sc.reconcile(nil)
	return nil
}

func (sc *schedulerContext) reconciliationShouldCancelNothing() error {
	if n := len(sc.diff.Cancel); n != 0 {
		return fmt.Errorf("expected no cancellations, got %d", n)
	}
	return nil
}

func (sc *schedulerContext) reconciliationShouldDispatchNothing() error {
	if n := len(sc.diff.Dispatch); n != 0 {
		return fmt.Errorf("expected no new dispatches, got %d (first %s)", n, sc.diff.Dispatch[0].Entry.Type)
	}
	return nil
}

func (sc *schedulerContext) reconciliationShouldCancelActions(n int) error {
	if got := len(sc.diff.Cancel); got != n {
		return fmt.Errorf("expected %d cancellations, got %d", n, got)
	}
	return nil
}

func (sc *schedulerContext) theStartedActionShouldBeKept() error {
	if sc.started == nil {
		return fmt.Errorf("no started action")
	}
	for _, a := range sc.diff.Keep {
		if a == sc.started {
			return nil
		}
	}
	return fmt.Errorf("started action %s was not kept", sc.started.BuildType())
}

func registerReconciliationSteps(ctx *godog.ScenarioContext, sc *schedulerContext) {
	ctx.Step(`^a started action for "([^"]*)"$`, sc.aStartedActionFor)
	ctx.Step(`^a dispatched action for "([^"]*)"$`, sc.aDispatchedActionFor)

	ctx.Step(`^I plan a tick and dispatch every action due$`, sc.iPlanATickAndDispatchEveryActionDue)
	ctx.Step(`^I plan the same tick again$`, sc.iPlanTheSameTickAgain)
	ctx.Step(`^I reconcile against an empty plan$`, sc.iReconcileAgainstAnEmptyPlan)

	ctx.Step(`^reconciliation should cancel nothing$`, sc.reconciliationShouldCancelNothing)
	ctx.Step(`^reconciliation should dispatch nothing$`, sc.reconciliationShouldDispatchNothing)
	ctx.Step(`^reconciliation should cancel (\d+) actions?$`, sc.reconciliationShouldCancelActions)
	ctx.Step(`^the started action should be kept$`, sc.theStartedActionShouldBeKept)
}
