package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-planner/internal/model"
)

// TaskRepository handles persistence of task templates and instances.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindForUpdate loads a task and locks its row until the surrounding
// transaction ends. SQLite has no row locks and relies on its single writer.
func (r *TaskRepository) FindForUpdate(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&task, taskID).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns one page of tasks, newest first, and the total match count.
func (r *TaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if !filter.IncludeArchived {
		q = q.Where("status = ?", model.StatusActive)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Kind != nil {
		q = q.Where("kind = ?", *filter.Kind)
	}
	if filter.Frequency != nil {
		q = q.Where("frequency = ?", *filter.Frequency)
	}
	if filter.PeriodStartDate != nil {
		q = q.Where("period_start_date = ?", *filter.PeriodStartDate)
	}
	if filter.ParentTaskID != nil {
		q = q.Where("parent_task_id = ?", *filter.ParentTaskID)
	}
	if filter.TemplatesOnly {
		q = q.Where("is_template = ?", true)
	}
	if filter.OpenOnly {
		q = q.Where("is_completed = ?", false)
	}
	if filter.Search != "" {
		q = q.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	page := filter.Page.Normalize()
	var tasks []model.Task
	if err := q.Order("created_at DESC, id DESC").Limit(page.Limit).Offset(page.Offset()).Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListActive returns every active task ordered by period start.
func (r *TaskRepository) ListActive(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("status = ?", model.StatusActive).
		Order("period_start_date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// ArchiveByCategory archives every active task of a category and returns how many changed.
func (r *TaskRepository) ArchiveByCategory(ctx context.Context, categoryID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("category_id = ? AND status = ?", categoryID, model.StatusActive).
		Update("status", model.StatusArchived)
	if res.Error != nil {
		return 0, fmt.Errorf("archive category tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
