package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"habit-planner/internal/model"
	"habit-planner/internal/period"
	"habit-planner/internal/progress"
	"habit-planner/internal/repository"
)

const (
	minNameLength    = 2
	maxEventIDLength = 64
)

// TaskInput represents data required to create a task template.
type TaskInput struct {
	Name       string
	Kind       model.TaskKind
	Frequency  model.Frequency
	Goal       int
	CategoryID uint
	StartDate  model.Date
}

// TaskUpdate lists the editable fields of a task; nil fields stay unchanged.
type TaskUpdate struct {
	Name       *string
	CategoryID *uint
	Frequency  *model.Frequency
	StartDate  *model.Date
	Goal       *int
}

// ProgressInput is one progress action against a task. ID is the
// idempotency key of the action and is generated when empty.
type ProgressInput struct {
	ID        string
	Date      model.Date
	Magnitude int
	Status    model.SessionStatus
}

// ProgressUpdate lists the editable fields of a progress event.
type ProgressUpdate struct {
	Date      *model.Date
	Magnitude *int
	Status    *model.SessionStatus
}

// ProgressResult is the state left behind by a progress write.
type ProgressResult struct {
	Task               *model.Task
	Event              *model.ProgressEvent
	SpawnedSuccessorID *uint
	// Replayed is set when the event ID had already been recorded and nothing was written.
	Replayed bool
}

// PeriodStatus summarises a task's current period.
type PeriodStatus struct {
	period.Period
	PeriodID  string `json:"period_id"`
	Goal      int    `json:"goal"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Complete  bool   `json:"complete"`
}

// TaskService owns the task lifecycle: creation, progress accumulation,
// completion and spawning of the next period's instance.
//
// Every write that touches a task's counter runs in one transaction while
// holding that task's lock, so concurrent callers on the same task are
// applied one after another.
type TaskService struct {
	store *repository.Store
	locks *taskLocks
	newID func() string
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{
		store: store,
		locks: newTaskLocks(),
		newID: uuid.NewString,
	}
}

// ComputePeriod validates its input and returns [start, end) for freq.
func (s *TaskService) ComputePeriod(freq model.Frequency, start model.Date) (period.Period, error) {
	if !freq.Valid() {
		return period.Period{}, invalid("unknown task frequency %q", freq)
	}
	if start.IsZero() {
		return period.Period{}, invalid("start date is required")
	}
	return period.Compute(freq, start), nil
}

// CreateTask stores a new open template whose first period starts on input.StartDate.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Kind.Valid() {
		return nil, invalid("unknown task type %q", input.Kind)
	}
	p, err := s.ComputePeriod(input.Frequency, input.StartDate)
	if err != nil {
		return nil, err
	}
	if input.Goal <= 0 {
		return nil, invalid("goal must be positive, got %d", input.Goal)
	}
	if input.CategoryID == 0 {
		return nil, invalid("category is required")
	}

	var task *model.Task
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := activeCategory(ctx, tx, input.CategoryID); err != nil {
			return err
		}
		task = model.NewTemplate(name, input.Kind, input.Frequency, input.Goal, input.CategoryID, p.Start, p.End)
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] task created id=%d kind=%s frequency=%s period=%s", task.ID, task.Kind, task.Frequency, p)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, int64, error) {
	return s.store.Tasks.List(ctx, filter)
}

// PeriodStatus reports the progress of a task's current period.
func (s *TaskService) PeriodStatus(ctx context.Context, taskID uint) (*PeriodStatus, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	p := period.Of(task)
	res := progress.Evaluate(progress.GoalOf(task), task.CompletedCount)
	return &PeriodStatus{
		Period:    p,
		PeriodID:  p.ID(task.ID),
		Goal:      task.Goal,
		Total:     task.CompletedCount,
		Remaining: res.Remaining,
		Complete:  task.IsCompleted,
	}, nil
}

// UpdateTask edits an open, active task. Frequency, start date and goal
// belong to the template: they can change only on a template without
// progress, and a new frequency or start date recomputes its period.
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint, upd TaskUpdate) (*model.Task, error) {
	var name string
	if upd.Name != nil {
		n, err := validateName(*upd.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}
	if upd.Frequency != nil && !upd.Frequency.Valid() {
		return nil, invalid("unknown task frequency %q", *upd.Frequency)
	}
	if upd.StartDate != nil && upd.StartDate.IsZero() {
		return nil, invalid("start date is required")
	}
	if upd.Goal != nil && *upd.Goal <= 0 {
		return nil, invalid("goal must be positive, got %d", *upd.Goal)
	}

	release := s.locks.lock(taskID)
	defer release()

	var task *model.Task
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.FindForUpdate(ctx, taskID)
		if err != nil {
			return notFound(err, "task", taskID)
		}
		if task.IsArchived() {
			return conflict("task %d is archived", task.ID)
		}
		if task.IsCompleted {
			return conflict("task %d is complete", task.ID)
		}

		if upd.Frequency != nil || upd.StartDate != nil || upd.Goal != nil {
			if _, ok := task.Lineage().(model.Instance); ok {
				return conflict("task %d is an instance; edit its template instead", task.ID)
			}
			if task.CompletedCount > 0 {
				return conflict("task %d already has progress in its period", task.ID)
			}
		}

		if upd.Name != nil {
			task.Name = name
		}
		if upd.CategoryID != nil {
			if _, err := activeCategory(ctx, tx, *upd.CategoryID); err != nil {
				return err
			}
			task.CategoryID = *upd.CategoryID
		}
		if upd.Frequency != nil || upd.StartDate != nil {
			if upd.Frequency != nil {
				task.Frequency = *upd.Frequency
			}
			if upd.StartDate != nil {
				task.StartDate = *upd.StartDate
			}
			p := period.Compute(task.Frequency, task.StartDate)
			task.PeriodStartDate, task.PeriodEndDate = p.Start, p.End
		}
		if upd.Goal != nil {
			task.Goal = *upd.Goal
		}
		return tx.Tasks.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] task updated id=%d", task.ID)
	return task, nil
}

// ArchiveTask soft-deletes a task. Its events stay in the ledger.
func (s *TaskService) ArchiveTask(ctx context.Context, taskID uint) error {
	release := s.locks.lock(taskID)
	defer release()

	changed := false
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindForUpdate(ctx, taskID)
		if err != nil {
			return notFound(err, "task", taskID)
		}
		if task.IsArchived() {
			return nil
		}
		task.Status = model.StatusArchived
		changed = true
		return tx.Tasks.Save(ctx, task)
	})
	if err != nil {
		return err
	}
	if changed {
		log.Printf("[info] task archived id=%d", taskID)
	}
	return nil
}

// RecordProgress appends a progress event to the task's current period and
// applies the completion it may cause. Recording an event ID that already
// exists returns the stored state without writing anything.
func (s *TaskService) RecordProgress(ctx context.Context, taskID uint, input ProgressInput) (*ProgressResult, error) {
	if input.Date.IsZero() {
		return nil, invalid("date is required")
	}
	if input.Status == "" {
		input.Status = model.SessionCompleted
	}
	if !input.Status.Valid() {
		return nil, invalid("unknown session status %q", input.Status)
	}
	if input.Magnitude < 0 {
		return nil, invalid("progress must not be negative, got %d", input.Magnitude)
	}
	input.ID = strings.TrimSpace(input.ID)
	if input.ID == "" {
		input.ID = s.newID()
	}
	if len(input.ID) > maxEventIDLength {
		return nil, invalid("event id longer than %d characters", maxEventIDLength)
	}

	release := s.locks.lock(taskID)
	defer release()

	var result *ProgressResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindForUpdate(ctx, taskID)
		if err != nil {
			return notFound(err, "task", taskID)
		}

		existing, err := tx.Progress.FindByID(ctx, input.ID)
		switch {
		case err == nil:
			if existing.TaskID != task.ID {
				return conflict("event %s was recorded for task %d", existing.ID, existing.TaskID)
			}
			result = &ProgressResult{Task: task, Event: existing, Replayed: true}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find progress event: %w", err)
		}

		if err := acceptsProgress(task); err != nil {
			return err
		}
		magnitude, err := normalizeMagnitude(task.Kind, input.Magnitude)
		if err != nil {
			return err
		}

		periodID := period.Of(task).ID(task.ID)
		recorded, err := tx.Progress.ListByPeriod(ctx, task.ID, periodID)
		if err != nil {
			return err
		}

		event := &model.ProgressEvent{
			ID:        input.ID,
			TaskID:    task.ID,
			PeriodID:  periodID,
			Date:      input.Date,
			Status:    input.Status,
			Magnitude: magnitude,
		}
		goal := progress.GoalOf(task)
		res := progress.Accumulate(goal, recorded, *event)
		if task.IsCompleted {
			// A completed counter survives event removals, so it can be
			// ahead of the ledger; keep growing it from where it is.
			added := 0
			if event.Counts() {
				added = event.Magnitude
			}
			res = progress.Evaluate(goal, task.CompletedCount+added)
		}
		event.IsPeriodCompleted = res.Complete
		event.RemainingMinutes = progress.RemainingSnapshot(goal, res)

		if err := tx.Progress.Create(ctx, event); err != nil {
			return err
		}
		spawned, err := s.applyResult(ctx, tx, task, res)
		if err != nil {
			return err
		}
		result = &ProgressResult{Task: task, Event: event, SpawnedSuccessorID: spawned}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		log.Printf("[info] progress replay ignored event=%s task=%d", result.Event.ID, taskID)
		return result, nil
	}
	log.Printf("[info] progress recorded event=%s task=%d magnitude=%d total=%d/%d completed=%t",
		result.Event.ID, taskID, result.Event.Magnitude, result.Task.CompletedCount, result.Task.Goal, result.Task.IsCompleted)
	logSpawn(result.Task, result.SpawnedSuccessorID)
	return result, nil
}

// Complete records count units of progress dated at the start of the task's
// current period.
func (s *TaskService) Complete(ctx context.Context, taskID uint, count int) (*ProgressResult, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.RecordProgress(ctx, taskID, ProgressInput{
		Date:      task.PeriodStartDate,
		Magnitude: count,
		Status:    model.SessionCompleted,
	})
}

func (s *TaskService) GetProgress(ctx context.Context, eventID string) (*model.ProgressEvent, error) {
	event, err := s.store.Progress.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "progress event", eventID)
	}
	return event, nil
}

func (s *TaskService) ListProgress(ctx context.Context, filter model.ProgressFilter) ([]model.ProgressEvent, int64, error) {
	return s.store.Progress.List(ctx, filter)
}

// UpdateProgress edits an event of an open task and re-runs the completion
// check with the edited value in place of the old one.
func (s *TaskService) UpdateProgress(ctx context.Context, eventID string, upd ProgressUpdate) (*ProgressResult, error) {
	if upd.Date != nil && upd.Date.IsZero() {
		return nil, invalid("date is required")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, invalid("unknown session status %q", *upd.Status)
	}
	if upd.Magnitude != nil && *upd.Magnitude < 0 {
		return nil, invalid("progress must not be negative, got %d", *upd.Magnitude)
	}

	current, err := s.GetProgress(ctx, eventID)
	if err != nil {
		return nil, err
	}
	release := s.locks.lock(current.TaskID)
	defer release()

	var result *ProgressResult
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		event, err := tx.Progress.FindByID(ctx, eventID)
		if err != nil {
			return notFound(err, "progress event", eventID)
		}
		task, err := tx.Tasks.FindForUpdate(ctx, event.TaskID)
		if err != nil {
			return notFound(err, "task", event.TaskID)
		}
		if task.IsArchived() {
			return conflict("task %d is archived", task.ID)
		}
		if task.IsCompleted {
			return conflict("task %d is complete; its events can no longer be edited", task.ID)
		}
		periodID := period.Of(task).ID(task.ID)
		if event.PeriodID != periodID {
			return conflict("event %s belongs to an earlier period", event.ID)
		}

		if upd.Date != nil {
			event.Date = *upd.Date
		}
		if upd.Status != nil {
			event.Status = *upd.Status
		}
		if upd.Magnitude != nil {
			m, err := normalizeMagnitude(task.Kind, *upd.Magnitude)
			if err != nil {
				return err
			}
			event.Magnitude = m
		}

		recorded, err := tx.Progress.ListByPeriod(ctx, task.ID, periodID)
		if err != nil {
			return err
		}
		goal := progress.GoalOf(task)
		res := progress.Accumulate(goal, recorded, *event)
		event.IsPeriodCompleted = res.Complete
		event.RemainingMinutes = progress.RemainingSnapshot(goal, res)
		if err := tx.Progress.Save(ctx, event); err != nil {
			return err
		}

		spawned, err := s.applyResult(ctx, tx, task, res)
		if err != nil {
			return err
		}
		result = &ProgressResult{Task: task, Event: event, SpawnedSuccessorID: spawned}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] progress updated event=%s task=%d total=%d/%d", eventID, result.Task.ID, result.Task.CompletedCount, result.Task.Goal)
	logSpawn(result.Task, result.SpawnedSuccessorID)
	return result, nil
}

// RemoveProgress deletes an event. An open task's counter is recomputed from
// the remaining events; a completed task keeps its counter and stays complete.
func (s *TaskService) RemoveProgress(ctx context.Context, eventID string) (*model.Task, error) {
	current, err := s.GetProgress(ctx, eventID)
	if err != nil {
		return nil, err
	}
	release := s.locks.lock(current.TaskID)
	defer release()

	var task *model.Task
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		event, err := tx.Progress.FindByID(ctx, eventID)
		if err != nil {
			return notFound(err, "progress event", eventID)
		}
		task, err = tx.Tasks.FindForUpdate(ctx, event.TaskID)
		if err != nil {
			return notFound(err, "task", event.TaskID)
		}
		if task.IsArchived() {
			return conflict("task %d is archived", task.ID)
		}
		if err := tx.Progress.Delete(ctx, event.ID); err != nil {
			return err
		}
		if task.IsCompleted {
			return nil
		}

		recorded, err := tx.Progress.ListByPeriod(ctx, task.ID, period.Of(task).ID(task.ID))
		if err != nil {
			return err
		}
		_, err = s.applyResult(ctx, tx, task, progress.Recompute(progress.GoalOf(task), recorded))
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[info] progress removed event=%s task=%d total=%d/%d", eventID, task.ID, task.CompletedCount, task.Goal)
	return task, nil
}

// applyResult stores the new counter on task and performs the OPEN to
// COMPLETE transition when res reaches the goal for the first time. A
// template spawns its successor on that transition; the new instance id is
// returned.
func (s *TaskService) applyResult(ctx context.Context, tx *repository.Store, task *model.Task, res progress.Result) (*uint, error) {
	wasComplete := task.IsCompleted
	task.CompletedCount = res.Total
	if !wasComplete {
		task.IsCompleted = res.Complete
	}
	if err := tx.Tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	if wasComplete || !task.IsCompleted {
		return nil, nil
	}

	if _, ok := task.Lineage().(model.Template); !ok {
		return nil, nil
	}
	next := period.Next(task.Frequency, period.Of(task))
	successor := task.Successor(next.Start, next.End)
	if err := tx.Tasks.Create(ctx, successor); err != nil {
		return nil, fmt.Errorf("spawn successor of task %d: %w", task.ID, err)
	}
	return &successor.ID, nil
}

func acceptsProgress(task *model.Task) error {
	if task.IsArchived() {
		return conflict("task %d is archived", task.ID)
	}
	if !task.IsCompleted {
		return nil
	}
	if _, ok := task.Lineage().(model.Instance); ok {
		return conflict("task %d already completed its period", task.ID)
	}
	return nil
}

// normalizeMagnitude defaults a YES_NO increment to 1; TIME_BASED sessions
// must report minutes.
func normalizeMagnitude(kind model.TaskKind, magnitude int) (int, error) {
	if magnitude > 0 {
		return magnitude, nil
	}
	if kind == model.KindYesNo {
		return 1, nil
	}
	return 0, invalid("duration minutes must be positive")
}

func activeCategory(ctx context.Context, tx *repository.Store, categoryID uint) (*model.Category, error) {
	category, err := tx.Categories.GetByID(ctx, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("category %d does not exist", categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("find category %d: %w", categoryID, err)
	}
	if category.IsArchived() {
		return nil, conflict("category %d is archived", categoryID)
	}
	return category, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalid("name is required")
	}
	if utf8.RuneCountInString(name) < minNameLength {
		return "", invalid("name must be at least %d characters", minNameLength)
	}
	return name, nil
}

func logSpawn(task *model.Task, successorID *uint) {
	if successorID == nil {
		return
	}
	log.Printf("[info] task completed id=%d, spawned successor id=%d", task.ID, *successorID)
}
