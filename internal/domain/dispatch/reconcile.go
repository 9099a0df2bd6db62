package dispatch

import "github.com/andrescamacho/autobuild-go/internal/domain/autobuild"

// DefaultWindow is how far ahead of the current frame plan entries are
// handed to the executor (30 seconds of game time).
const DefaultWindow = 15 * 30

// Reprioritization is a kept action whose plan position changed.
type Reprioritization struct {
	Action   *Action
	Priority int
}

// NewDispatch is a plan entry with no matching action.
type NewDispatch struct {
	Entry    autobuild.BuildEntry
	Priority int
	Frame    int
}

// Diff is the result of reconciling a plan against the active actions.
type Diff struct {
	// Keep lists matched actions and started actions that are no longer
	// planned; both stay with the executor.
	Keep         []*Action
	Reprioritize []Reprioritization
	Cancel       []*Action
	Dispatch     []NewDispatch

	// Dropped are finished actions removed from the active set.
	Dropped []*Action
}

// IsStable reports a diff with nothing to cancel or dispatch.
func (d Diff) IsStable() bool {
	return len(d.Cancel) == 0 && len(d.Dispatch) == 0
}

// Reconcile matches the plan entries due within window frames of now
// against the active actions. Priorities are 1-based plan positions, so a
// lower value means the item is needed earlier. Each action matches at most
// one entry. Reconcile does not mutate its inputs.
func Reconcile(active []*Action, plan []autobuild.PlanItem, now, window int) Diff {
	var diff Diff

	live := make([]*Action, 0, len(active))
	for _, a := range active {
		if a.Status().IsTerminal() {
			diff.Dropped = append(diff.Dropped, a)
			continue
		}
		live = append(live, a)
	}

	matched := make(map[*Action]bool, len(live))
	priority := 0
	for _, item := range plan {
		if item.Frame >= now+window {
			break
		}
		priority++

		found := false
		for _, a := range live {
			if matched[a] || !a.Matches(item.Entry) {
				continue
			}
			matched[a] = true
			found = true
			if a.Priority() != priority {
				diff.Reprioritize = append(diff.Reprioritize, Reprioritization{Action: a, Priority: priority})
			}
			break
		}
		if !found {
			diff.Dispatch = append(diff.Dispatch, NewDispatch{Entry: item.Entry, Priority: priority, Frame: item.Frame})
		}
	}

	for _, a := range live {
		switch {
		case matched[a]:
			diff.Keep = append(diff.Keep, a)
		case a.Status() == ActionStatusStarted:
			diff.Keep = append(diff.Keep, a)
		default:
			diff.Cancel = append(diff.Cancel, a)
		}
	}
	return diff
}
