package period

import (
	"testing"
	"time"

	"habit-planner/internal/model"
)

func TestCompute(t *testing.T) {
	cases := []struct {
		name  string
		freq  model.Frequency
		start model.Date
		want  model.Date
	}{
		{"daily", model.FrequencyDaily, model.NewDate(2024, 6, 1), model.NewDate(2024, 6, 2)},
		{"daily year end", model.FrequencyDaily, model.NewDate(2023, 12, 31), model.NewDate(2024, 1, 1)},
		{"weekly", model.FrequencyWeekly, model.NewDate(2024, 6, 1), model.NewDate(2024, 6, 8)},
		{"weekly across month", model.FrequencyWeekly, model.NewDate(2024, 2, 26), model.NewDate(2024, 3, 4)},
		{"monthly", model.FrequencyMonthly, model.NewDate(2024, 3, 15), model.NewDate(2024, 4, 15)},
		{"monthly leap clamp", model.FrequencyMonthly, model.NewDate(2024, 1, 31), model.NewDate(2024, 2, 29)},
		{"monthly non-leap clamp", model.FrequencyMonthly, model.NewDate(2023, 1, 31), model.NewDate(2023, 2, 28)},
		{"monthly 31 to 30", model.FrequencyMonthly, model.NewDate(2024, 3, 31), model.NewDate(2024, 4, 30)},
		{"monthly december", model.FrequencyMonthly, model.NewDate(2024, 12, 31), model.NewDate(2025, 1, 31)},
		{"unknown falls back to daily", model.Frequency("HOURLY"), model.NewDate(2024, 6, 1), model.NewDate(2024, 6, 2)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.freq, tc.start)
			if !got.Start.Equal(tc.start) {
				t.Fatalf("start = %s, want %s", got.Start, tc.start)
			}
			if !got.End.Equal(tc.want) {
				t.Fatalf("end = %s, want %s", got.End, tc.want)
			}
		})
	}
}

func TestComputeEndAlwaysAfterStart(t *testing.T) {
	freqs := []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly, model.Frequency("")}
	day := model.NewDate(2023, 1, 1)
	for i := 0; i < 800; i++ {
		for _, f := range freqs {
			p := Compute(f, day)
			if !p.End.After(p.Start) {
				t.Fatalf("%s from %s: end %s not after start", f, day, p.End)
			}
		}
		day = day.AddDays(1)
	}
}

func TestNextStartsAtPreviousEnd(t *testing.T) {
	first := Compute(model.FrequencyDaily, model.NewDate(2024, 6, 1))
	next := Next(model.FrequencyDaily, first)
	if !next.Start.Equal(model.NewDate(2024, 6, 2)) || !next.End.Equal(model.NewDate(2024, 6, 3)) {
		t.Fatalf("next = %s, want [2024-06-02, 2024-06-03)", next)
	}

	monthly := Compute(model.FrequencyMonthly, model.NewDate(2024, 1, 31))
	second := Next(model.FrequencyMonthly, monthly)
	if !second.End.Equal(model.NewDate(2024, 3, 29)) {
		t.Fatalf("second monthly end = %s, want 2024-03-29", second.End)
	}
}

func TestContainsIsHalfOpen(t *testing.T) {
	p := Compute(model.FrequencyWeekly, model.NewDate(2024, 6, 3))
	if !p.Contains(model.NewDate(2024, 6, 3)) {
		t.Fatal("period must contain its start")
	}
	if !p.Contains(model.NewDate(2024, 6, 9)) {
		t.Fatal("period must contain its last day")
	}
	if p.Contains(model.NewDate(2024, 6, 10)) {
		t.Fatal("period must not contain its end")
	}
	if p.Days() != 7 {
		t.Fatalf("days = %d, want 7", p.Days())
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)); got != 29 {
		t.Fatalf("feb 2024 = %d, want 29", got)
	}
	if got := DaysInMonth(time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)); got != 28 {
		t.Fatalf("feb 2023 = %d, want 28", got)
	}
}

func TestID(t *testing.T) {
	p := Compute(model.FrequencyDaily, model.NewDate(2024, 6, 1))
	if got := p.ID(42); got != "42_2024-06-01" {
		t.Fatalf("id = %q", got)
	}
}
