package service

import (
	"context"
	"path/filepath"
	"testing"

	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

type testEnv struct {
	store      *repository.Store
	tasks      *TaskService
	categories *CategoryService
	reminders  *ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := repository.NewStore(db)
	return &testEnv{
		store:      store,
		tasks:      NewTaskService(store),
		categories: NewCategoryService(store),
		reminders:  NewReminderService(store),
	}
}

func (e *testEnv) category(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func (e *testEnv) task(t *testing.T, input TaskInput) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), input)
	if err != nil {
		t.Fatalf("create task %q: %v", input.Name, err)
	}
	return task
}

func day(t *testing.T, raw string) model.Date {
	t.Helper()
	d, err := model.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date %q: %v", raw, err)
	}
	return d
}
