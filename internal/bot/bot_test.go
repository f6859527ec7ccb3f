package bot

import (
	"fmt"
	"strings"
	"testing"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

func mustDate(t *testing.T, raw string) model.Date {
	t.Helper()
	d, err := model.ParseDate(raw)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestConversationCollectsHabit(t *testing.T) {
	today := mustDate(t, "2024-06-01")
	state := &conversationState{stage: stageName}

	steps := []struct {
		answer   string
		wantHint bool
	}{
		{"x", true},
		{"Morning run", false},
		{"banana", true},
		{btnKindYesNo, false},
		{"yearly", true},
		{"Weekly", false},
		{"0", true},
		{"3", false},
		{"Fitness", false},
		{"tomorrow", true},
		{"2024-06-03", false},
	}
	for _, step := range steps {
		hint := state.advance(step.answer, today)
		if (hint != "") != step.wantHint {
			t.Fatalf("answer %q: hint=%q, wantHint=%t", step.answer, hint, step.wantHint)
		}
	}
	if state.stage != stageDone {
		t.Fatalf("stage = %d, want done", state.stage)
	}

	in := state.input(7)
	if in.Name != "Morning run" || in.Kind != model.KindYesNo || in.Frequency != model.FrequencyWeekly {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.Goal != 3 || in.CategoryID != 7 || in.StartDate.String() != "2024-06-03" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestConversationTodayShortcut(t *testing.T) {
	today := mustDate(t, "2024-06-01")
	state := &conversationState{stage: stageStartDate}
	if hint := state.advance(btnToday, today); hint != "" {
		t.Fatalf("unexpected hint %q", hint)
	}
	if !state.start.Equal(today) {
		t.Fatalf("start = %s, want %s", state.start, today)
	}
}

func TestParseKindInput(t *testing.T) {
	cases := map[string]model.TaskKind{
		btnKindTime:  model.KindTimeBased,
		"TIME_BASED": model.KindTimeBased,
		btnKindYesNo: model.KindYesNo,
		"yes/no":     model.KindYesNo,
	}
	for in, want := range cases {
		got, ok := parseKindInput(in)
		if !ok || got != want {
			t.Errorf("parseKindInput(%q) = %q, %t", in, got, ok)
		}
	}
	if _, ok := parseKindInput("sometimes"); ok {
		t.Error("expected unknown kind to be rejected")
	}
}

func TestParseProgressArgs(t *testing.T) {
	id, n, err := parseProgressArgs(" 12 ", false)
	if err != nil || id != 12 || n != 1 {
		t.Fatalf("parseProgressArgs(12) = %d, %d, %v", id, n, err)
	}
	id, n, err = parseProgressArgs("4 25", true)
	if err != nil || id != 4 || n != 25 {
		t.Fatalf("parseProgressArgs(4 25) = %d, %d, %v", id, n, err)
	}
	for _, bad := range []string{"", "abc", "0", "4", "4 -1", "4 x", "1 2 3"} {
		if _, _, err := parseProgressArgs(bad, bad == "4"); err == nil {
			t.Errorf("parseProgressArgs(%q) expected error", bad)
		}
	}
}

func TestProgressReply(t *testing.T) {
	spawned := uint(9)
	task := &model.Task{ID: 3, Name: "read", Kind: model.KindTimeBased, Goal: 30, CompletedCount: 35, IsCompleted: true}

	got := progressReply(&service.ProgressResult{Task: task, SpawnedSuccessorID: &spawned})
	if !strings.Contains(got, "35/30 min") || !strings.Contains(got, "#9") || !strings.Contains(got, "«Read»") {
		t.Fatalf("unexpected reply: %s", got)
	}
	if got := progressReply(&service.ProgressResult{Task: task, Replayed: true}); !strings.Contains(got, "Already counted") {
		t.Fatalf("unexpected replay reply: %s", got)
	}
}

func TestUserMessageDropsKind(t *testing.T) {
	err := fmt.Errorf("%w: task 4 is archived", service.ErrConflict)
	if got := userMessage(err); got != "task 4 is archived" {
		t.Fatalf("userMessage = %q", got)
	}
}

func TestFormatTaskMarksOverdue(t *testing.T) {
	task := model.Task{
		ID:              5,
		Name:            "stretch <5 min>",
		Kind:            model.KindYesNo,
		Frequency:       model.FrequencyDaily,
		Goal:            2,
		CompletedCount:  1,
		PeriodStartDate: mustDate(t, "2024-06-01"),
		PeriodEndDate:   mustDate(t, "2024-06-02"),
	}
	due := formatTask(task, mustDate(t, "2024-06-01"))
	if !strings.HasPrefix(due, iconDue) || !strings.Contains(due, "Stretch &lt;5 min&gt;") || !strings.Contains(due, "1/2") {
		t.Fatalf("unexpected line: %s", due)
	}
	late := formatTask(task, mustDate(t, "2024-06-04"))
	if !strings.HasPrefix(late, iconOverdue) || !strings.Contains(late, "overdue") {
		t.Fatalf("unexpected overdue line: %s", late)
	}
}

func TestShortTitleAndLabels(t *testing.T) {
	if got := shortTitle("a very long habit name indeed", 10); got != "A very lo…" {
		t.Fatalf("shortTitle = %q", got)
	}
	if got := categoryLabel("fitness"); got != "🏃 Fitness" {
		t.Fatalf("categoryLabel = %q", got)
	}
	if got := categoryLabel(""); got != "📁 No category" {
		t.Fatalf("categoryLabel(empty) = %q", got)
	}
	if got := goalLabel(model.KindYesNo, 1); got != "once" {
		t.Fatalf("goalLabel = %q", got)
	}
}
