package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
	"github.com/andrescamacho/autobuild-go/internal/domain/session"
	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
	"github.com/andrescamacho/autobuild-go/test/helpers"
)

type sessionContext struct {
	clock    *shared.MockClock
	session  *session.Session
	reloaded *session.Session
	err      error
}

func (sc *sessionContext) reset() {
	sc.clock = shared.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	sc.session = nil
	sc.reloaded = nil
	sc.err = nil
}

func (sc *sessionContext) iCreateSessionForStrategyAs(id, strategy, raceName string) error {
	race, err := buildtype.ParseRace(raceName)
	if err != nil {
		return err
	}
	sc.session, err = session.NewSession(id, strategy, race, sc.clock)
	return err
}

func (sc *sessionContext) aSessionInState(id, status string) error {
	s, err := session.NewSession(id, "nine_pool", buildtype.RaceZerg, sc.clock)
	if err != nil {
		return err
	}
	switch shared.LifecycleStatus(status) {
	case shared.LifecycleStatusPending:
	case shared.LifecycleStatusRunning:
		err = s.Start()
	case shared.LifecycleStatusCompleted:
		if err = s.Start(); err == nil {
			err = s.Complete()
		}
	case shared.LifecycleStatusStopped:
		if err = s.Start(); err == nil {
			err = s.Stop()
		}
	case shared.LifecycleStatusFailed:
		if err = s.Start(); err == nil {
			err = s.Fail(fmt.Errorf("executor lost"))
		}
	default:
		return fmt.Errorf("unknown status %q", status)
	}
	if err != nil {
		return err
	}
	sc.session = s
	return nil
}

func (sc *sessionContext) secondsHavePassed(seconds int) error {
	sc.clock.Advance(time.Duration(seconds) * time.Second)
	return nil
}

func (sc *sessionContext) iStopTheSession() error {
	sc.err = sc.session.Stop()
	return nil
}

func (sc *sessionContext) iStartTheSession() error {
	sc.err = sc.session.Start()
	return nil
}

func (sc *sessionContext) theSessionStatusShouldBe(expected string) error {
	if got := string(sc.session.Status()); got != expected {
		return fmt.Errorf("expected status %s, got %s", expected, got)
	}
	return nil
}

func (sc *sessionContext) theSessionStartedTimestampShouldBeNil() error {
	if sc.session.StartedAt() != nil {
		return fmt.Errorf("expected no start time, got %v", *sc.session.StartedAt())
	}
	return nil
}

func (sc *sessionContext) theSessionRuntimeShouldBe(seconds int) error {
	expected := time.Duration(seconds) * time.Second
	if got := sc.session.RuntimeDuration(); got != expected {
		return fmt.Errorf("expected runtime %s, got %s", expected, got)
	}
	return nil
}

func (sc *sessionContext) theSessionTransitionShould(outcome string) error {
	switch outcome {
	case "fail":
		if sc.err == nil {
			return fmt.Errorf("expected the transition to fail")
		}
	case "succeed":
		if sc.err != nil {
			return fmt.Errorf("expected the transition to succeed, got %v", sc.err)
		}
	}
	return nil
}

func (sc *sessionContext) iSaveAndReloadTheSession() error {
	if helpers.SharedTestDB == nil {
		return fmt.Errorf("shared test database not initialized")
	}
	ctx := context.Background()
	repo := persistence.NewSessionRepository(helpers.SharedTestDB, sc.clock)
	if err := repo.Save(ctx, sc.session); err != nil {
		return err
	}
	reloaded, err := repo.FindByID(ctx, sc.session.ID())
	if err != nil {
		return err
	}
	sc.reloaded = reloaded
	return nil
}

func (sc *sessionContext) theReloadedSessionShouldHaveStatus(expected string) error {
	if got := string(sc.reloaded.Status()); got != expected {
		return fmt.Errorf("expected reloaded status %s, got %s", expected, got)
	}
	return nil
}

func (sc *sessionContext) theReloadedSessionShouldUseStrategyAs(strategy, race string) error {
	if sc.reloaded.Strategy() != strategy {
		return fmt.Errorf("expected strategy %s, got %s", strategy, sc.reloaded.Strategy())
	}
	if sc.reloaded.Race().String() != race {
		return fmt.Errorf("expected race %s, got %s", race, sc.reloaded.Race())
	}
	return nil
}

// InitializeSessionScenario registers the planning session lifecycle steps
func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	sc := &sessionContext{}

	ctx.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		sc.reset()
		if helpers.SharedTestDB != nil {
			if err := helpers.TruncateAllTables(); err != nil {
				return ctx, err
			}
		}
		return ctx, nil
	})

	ctx.Step(`^I create session "([^"]*)" for strategy "([^"]*)" as "([^"]*)"$`, sc.iCreateSessionForStrategyAs)
	ctx.Step(`^a session "([^"]*)" in "([^"]*)" state$`, sc.aSessionInState)
	ctx.Step(`^(\d+) seconds have passed$`, sc.secondsHavePassed)
	ctx.Step(`^I stop the session$`, sc.iStopTheSession)
	ctx.Step(`^I start the session$`, sc.iStartTheSession)

	ctx.Step(`^the session status should be "([^"]*)"$`, sc.theSessionStatusShouldBe)
	ctx.Step(`^the session started timestamp should be nil$`, sc.theSessionStartedTimestampShouldBeNil)
	ctx.Step(`^the session runtime should be (\d+) seconds$`, sc.theSessionRuntimeShouldBe)
	ctx.Step(`^the session transition should (fail|succeed)$`, sc.theSessionTransitionShould)
	ctx.Step(`^I save and reload the session$`, sc.iSaveAndReloadTheSession)
	ctx.Step(`^the reloaded session should have status "([^"]*)"$`, sc.theReloadedSessionShouldHaveStatus)
	ctx.Step(`^the reloaded session should use strategy "([^"]*)" as "([^"]*)"$`, sc.theReloadedSessionShouldUseStrategyAs)
}
