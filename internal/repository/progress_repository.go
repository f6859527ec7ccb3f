package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-planner/internal/model"
)

// ProgressRepository is the ledger of progress events.
type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Create(ctx context.Context, event *model.ProgressEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create progress event: %w", err)
	}
	return nil
}

func (r *ProgressRepository) FindByID(ctx context.Context, id string) (*model.ProgressEvent, error) {
	var event model.ProgressEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByPeriod returns the events of one task period in write order.
func (r *ProgressRepository) ListByPeriod(ctx context.Context, taskID uint, periodID string) ([]model.ProgressEvent, error) {
	var events []model.ProgressEvent
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND period_id = ?", taskID, periodID).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list period events: %w", err)
	}
	return events, nil
}

// List returns one page of events, newest first, and the total match count.
func (r *ProgressRepository) List(ctx context.Context, filter model.ProgressFilter) ([]model.ProgressEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProgressEvent{})
	if filter.TaskID != nil {
		q = q.Where("task_id = ?", *filter.TaskID)
	}
	if filter.Date != nil {
		q = q.Where("date = ?", *filter.Date)
	}
	if filter.PeriodID != "" {
		q = q.Where("period_id = ?", filter.PeriodID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count progress events: %w", err)
	}

	page := filter.Page.Normalize()
	var events []model.ProgressEvent
	if err := q.Order("created_at DESC, id DESC").Limit(page.Limit).Offset(page.Offset()).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("list progress events: %w", err)
	}
	return events, total, nil
}

func (r *ProgressRepository) Save(ctx context.Context, event *model.ProgressEvent) error {
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (r *ProgressRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ProgressEvent{}).Error; err != nil {
		return fmt.Errorf("delete progress event: %w", err)
	}
	return nil
}
