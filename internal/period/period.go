// Package period turns a task frequency and a start day into the half-open
// interval during which progress toward the task's goal is accumulated.
package period

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"habit-planner/internal/model"
)

// Period is the half-open interval [Start, End).
type Period struct {
	Start model.Date `json:"period_start_date"`
	End   model.Date `json:"period_end_date"`
}

// Compute returns the period starting at start for the given frequency.
//
// MONTHLY keeps the day of month and clamps it to the last day of the target
// month, so Jan 31 ends on Feb 29 in a leap year. A frequency outside the
// known set falls back to DAILY; callers parse frequencies with
// model.ParseFrequency, which rejects such values, so only rows written
// before that check can reach the fallback.
func Compute(freq model.Frequency, start model.Date) Period {
	var end model.Date
	switch freq {
	case model.FrequencyWeekly:
		end = start.AddDays(7)
	case model.FrequencyMonthly:
		end = AddMonths(start, 1)
	default:
		end = start.AddDays(1)
	}
	return Period{Start: start, End: end}
}

// Next returns the period that follows p.
func Next(freq model.Frequency, p Period) Period {
	return Compute(freq, p.End)
}

// Of returns the current period stored on a task.
func Of(task *model.Task) Period {
	return Period{Start: task.PeriodStartDate, End: task.PeriodEndDate}
}

// AddMonths moves d by n calendar months, clamping the day of month to the
// length of the target month.
func AddMonths(d model.Date, n int) model.Date {
	t := d.Time()
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := t.Day()
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return model.NewDate(first.Year(), first.Month(), day)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return now.With(t).EndOfMonth().Day()
}

func (p Period) Contains(d model.Date) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

// Days is the length of the period in calendar days.
func (p Period) Days() int {
	return int(p.End.Time().Sub(p.Start.Time()).Hours() / 24)
}

// ID correlates all progress events a task records during p.
func (p Period) ID(taskID uint) string {
	return fmt.Sprintf("%d_%s", taskID, p.Start)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start, p.End)
}
