package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"habit-planner/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "nested", "planner.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db)
}

func seedTask(t *testing.T, s *Store) *model.Task {
	t.Helper()
	ctx := context.Background()
	cat, err := s.Categories.GetOrCreate(ctx, "Work", "#3B82F6")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	start := model.NewDate(2024, time.June, 1)
	task := model.NewTemplate("Review", model.KindYesNo, model.FrequencyDaily, 3, cat.ID, start, start.AddDays(1))
	if err := s.Tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create task: %v", err)
	}
	return task
}

func TestListByPeriodOrdersByCreationThenID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)
	periodID := "1_2024-06-01"

	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	for _, ev := range []model.ProgressEvent{
		{ID: "b", CreatedAt: t1},
		{ID: "a", CreatedAt: t1},
		{ID: "c", CreatedAt: t0},
		{ID: "z", CreatedAt: t0, PeriodID: "1_2024-06-02"},
	} {
		ev.TaskID = task.ID
		if ev.PeriodID == "" {
			ev.PeriodID = periodID
		}
		ev.Date = task.PeriodStartDate
		ev.Status = model.SessionCompleted
		ev.Magnitude = 1
		if err := s.Progress.Create(ctx, &ev); err != nil {
			t.Fatalf("Create %s: %v", ev.ID, err)
		}
	}

	events, err := s.Progress.ListByPeriod(ctx, task.ID, periodID)
	if err != nil {
		t.Fatalf("ListByPeriod: %v", err)
	}
	var got []string
	for _, ev := range events {
		got = append(got, ev.ID)
	}
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)

	err := s.Transaction(ctx, func(tx *Store) error {
		locked, err := tx.Tasks.FindForUpdate(ctx, task.ID)
		if err != nil {
			return err
		}
		locked.CompletedCount = 3
		if err := tx.Tasks.Save(ctx, locked); err != nil {
			return err
		}
		return context.Canceled
	})
	if err != context.Canceled {
		t.Fatalf("Transaction error = %v, want context.Canceled", err)
	}

	got, err := s.Tasks.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.CompletedCount != 0 {
		t.Fatalf("rolled back write is visible: %+v", got)
	}
}

func TestTaskListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s)

	child := task.Successor(task.PeriodEndDate, task.PeriodEndDate.AddDays(1))
	if err := s.Tasks.Create(ctx, child); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	templates, total, err := s.Tasks.List(ctx, model.TaskFilter{TemplatesOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || templates[0].ID != task.ID {
		t.Fatalf("templates filter: %+v", templates)
	}

	start := child.PeriodStartDate
	byPeriod, total, err := s.Tasks.List(ctx, model.TaskFilter{PeriodStartDate: &start})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || byPeriod[0].ID != child.ID {
		t.Fatalf("period filter: %+v", byPeriod)
	}

	n, err := s.Tasks.ArchiveByCategory(ctx, task.CategoryID)
	if err != nil {
		t.Fatalf("ArchiveByCategory: %v", err)
	}
	if n != 2 {
		t.Fatalf("archived %d tasks, want 2", n)
	}
	_, total, err = s.Tasks.List(ctx, model.TaskFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 {
		t.Fatalf("archived tasks listed by default")
	}
}
