// Package progress aggregates the progress events of one task period and
// decides whether the period goal has been met.
//
// Totals are always recomputed from the full set of events in the period
// rather than incremented, so a replayed or edited event replaces its earlier
// version instead of adding to it.
package progress

import "habit-planner/internal/model"

// Goal is what a period must reach to be complete.
type Goal struct {
	Kind  model.TaskKind
	Value int
}

// GoalOf reads the goal of a task.
func GoalOf(task *model.Task) Goal {
	return Goal{Kind: task.Kind, Value: task.Goal}
}

// Result is the state of a period after aggregation.
type Result struct {
	Total     int
	Complete  bool
	Remaining int
}

// Accumulate sums the counting events in recorded plus incoming. An event in
// recorded with the same ID as incoming is replaced by incoming.
func Accumulate(goal Goal, recorded []model.ProgressEvent, incoming model.ProgressEvent) Result {
	total := Sum(recorded, incoming.ID)
	if incoming.Counts() {
		total += incoming.Magnitude
	}
	return Evaluate(goal, total)
}

// Recompute aggregates recorded as is.
func Recompute(goal Goal, recorded []model.ProgressEvent) Result {
	return Evaluate(goal, Sum(recorded, ""))
}

// Sum adds the magnitudes of counting events, skipping the event whose ID is
// exclude.
func Sum(events []model.ProgressEvent, exclude string) int {
	total := 0
	for i := range events {
		ev := &events[i]
		if exclude != "" && ev.ID == exclude {
			continue
		}
		if !ev.Counts() {
			continue
		}
		total += ev.Magnitude
	}
	return total
}

// Evaluate compares total against goal.
func Evaluate(goal Goal, total int) Result {
	if total < 0 {
		total = 0
	}
	remaining := goal.Value - total
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Total:     total,
		Complete:  total >= goal.Value,
		Remaining: remaining,
	}
}

// RemainingSnapshot is the value stored on an event for display: the minutes
// left in the period for TIME_BASED tasks, nil otherwise.
func RemainingSnapshot(goal Goal, res Result) *int {
	if goal.Kind != model.KindTimeBased {
		return nil
	}
	r := res.Remaining
	return &r
}
