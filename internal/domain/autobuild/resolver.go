package autobuild

import (
	"fmt"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// DefaultDepbuildHorizon bounds how far a single dependency resolution may
// simulate ahead (ten game minutes).
const DefaultDepbuildHorizon = 15 * 60 * 10

// Trace receives verbose resolver output. Depth is the recursion depth of
// the call that produced the line, for indentation.
type Trace struct {
	Sink  func(depth int, message string)
	Depth int
}

func (t Trace) enter() Trace {
	t.Depth++
	return t
}

func (t Trace) logf(format string, args ...interface{}) {
	if t.Sink == nil {
		return
	}
	t.Sink(t.Depth, fmt.Sprintf(format, args...))
}

// Continuation schedules everything queued behind the current request.
type Continuation func(st *SimState) bool

// Resolver runs dependency resolution and no-delay interleaving on top of
// Advance. The zero value uses DefaultDepbuildHorizon and no tracing.
type Resolver struct {
	// Horizon is the depbuild deadline relative to its starting frame.
	Horizon int
	Trace   Trace
}

func (r Resolver) nested() Resolver {
	r.Trace = r.Trace.enter()
	return r
}

func (r Resolver) horizon() int {
	if r.Horizon <= 0 {
		return DefaultDepbuildHorizon
	}
	return r.Horizon
}

// Depbuild tries to commit entry, building whatever blocks it first. After
// every blocked attempt st is reset to baseline, so only the final
// successful attempt leaves its mark. It reports whether anything was
// committed; failure only means entry is skipped this tick.
func (r Resolver) Depbuild(st, baseline *SimState, entry BuildEntry) bool {
	initial := entry.Type
	r.Trace.logf("depbuild %s", initial)
	deadline := st.Frame + r.horizon()
	attemptedTypes := make(map[*buildtype.BuildType]bool)

	for {
		attempted := entry.Type
		attemptedTypes[attempted] = true
		res := Advance(st, entry, deadline)
		r.Trace.enter().logf("advance %s -> %s", attempted, res)

		switch res.Outcome {
		case Success:
			r.Trace.logf("depbuild %s: successfully built %s", initial, attempted)
			return true
		case SideEffectBuilt:
			r.Trace.logf("depbuild %s: successfully built some dependency", initial)
			return true
		}

		if st.Frame != baseline.Frame {
			st.CopyFrom(baseline)
		}

		switch res.Outcome {
		case Failed:
			r.Trace.logf("depbuild %s: failed", initial)
			return false
		case TimedOut:
			r.Trace.logf("depbuild %s: timed out", initial)
			return false
		}

		blocker := res.Blocker
		if attemptedTypes[blocker] || selfBuilt(st, blocker) {
			r.Trace.logf("depbuild %s: failing because of unsatisfiable cyclic dependency", initial)
			return false
		}
		if blocker.IsWorker {
			r.Trace.logf("depbuild %s: failing because of worker dependency", initial)
			return false
		}
		entry = BuildEntry{Type: blocker}
	}
}

// selfBuilt reports a blocker whose builder is built by the blocker itself
// while that builder does not exist and is not coming.
func selfBuilt(st *SimState, t *buildtype.BuildType) bool {
	return t.Builder != nil && t.Builder.Builder == t && !st.HasOrInProduction(t.Builder)
}

// Nodelay schedules priority and lets rest ride along only when doing so
// does not push back the frame at which priority is committed.
func (r Resolver) Nodelay(st *SimState, priority BuildEntry, rest Continuation) bool {
	r.Trace.logf("nodelay %s", priority.Type)
	before := st.Clone()
	if !r.nested().Depbuild(st, before, priority) {
		r.Trace.logf("nodelay %s: depbuild failed", priority.Type)
		*st = *before
		return rest(st)
	}
	afterPriority := new(SimState)
	*afterPriority = *st
	*st = *before
	return r.nodelayStage2(st, afterPriority, priority, rest)
}

// nodelayStage2 runs rest from the original state and then retries priority
// on top of it. st holds the original state on entry and the chosen timeline
// on return.
func (r Resolver) nodelayStage2(st, afterPriority *SimState, priority BuildEntry, rest Continuation) bool {
	r.Trace.logf("nodelayStage2 %s", priority.Type)
	if !rest(st) {
		r.Trace.logf("nodelayStage2 %s: rest failed", priority.Type)
		*st = *afterPriority
		return true
	}
	if st.Frame >= afterPriority.Frame {
		r.Trace.logf("nodelayStage2 %s: too late; choose priority", priority.Type)
		*st = *afterPriority
		return true
	}
	afterRest := st.Clone()
	if !r.nested().Depbuild(st, afterRest, priority) {
		r.Trace.logf("nodelayStage2 %s: depbuild failed", priority.Type)
		*st = *afterPriority
		return true
	}
	if st.Frame <= afterPriority.Frame {
		r.Trace.logf("nodelayStage2 %s: no delay; choose both", priority.Type)
		return true
	}
	r.Trace.logf("nodelayStage2 %s: would delay; choose priority", priority.Type)
	*st = *afterPriority
	return true
}
