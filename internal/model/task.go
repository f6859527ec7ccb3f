package model

import "time"

// Task is either the recurring definition of a habit (template) or one
// occurrence of it tied to a single period (instance).
type Task struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Kind            TaskKind  `gorm:"size:16;not null" json:"task_type"`
	Frequency       Frequency `gorm:"size:16;not null" json:"task_frequency"`
	Goal            int       `gorm:"not null" json:"goal"` // minutes for TIME_BASED, count for YES_NO
	CategoryID      uint      `gorm:"index;not null" json:"category_id"`
	StartDate       Date      `gorm:"size:10;not null" json:"start_date"`
	Status          Status    `gorm:"size:16;not null;index" json:"status"`
	IsTemplate      bool      `gorm:"not null" json:"is_template"`
	ParentTaskID    *uint     `gorm:"index" json:"parent_task_id,omitempty"`
	PeriodStartDate Date      `gorm:"size:10;not null;index" json:"period_start_date"`
	PeriodEndDate   Date      `gorm:"size:10;not null" json:"period_end_date"`
	CompletedCount  int       `gorm:"not null;default:0" json:"completed_count"`
	IsCompleted     bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Lineage tells a template apart from the instances spawned from it.
type Lineage interface {
	isLineage()
}

// Template is the lineage of a recurring definition. Completing it spawns
// exactly one successor instance.
type Template struct{}

// Instance is the lineage of a task spawned from ParentID. Completing it
// ends its lifecycle.
type Instance struct {
	ParentID uint
}

func (Template) isLineage() {}
func (Instance) isLineage() {}

func (t *Task) Lineage() Lineage {
	if t.IsTemplate || t.ParentTaskID == nil {
		return Template{}
	}
	return Instance{ParentID: *t.ParentTaskID}
}

// NewTemplate builds an open template with zero progress for [periodStart, periodEnd).
func NewTemplate(name string, kind TaskKind, freq Frequency, goal int, categoryID uint, start, periodEnd Date) *Task {
	return &Task{
		Name:            name,
		Kind:            kind,
		Frequency:       freq,
		Goal:            goal,
		CategoryID:      categoryID,
		StartDate:       start,
		Status:          StatusActive,
		IsTemplate:      true,
		PeriodStartDate: start,
		PeriodEndDate:   periodEnd,
	}
}

// Successor copies the definition of t into a fresh instance for the given period.
func (t *Task) Successor(periodStart, periodEnd Date) *Task {
	parent := t.ID
	return &Task{
		Name:            t.Name,
		Kind:            t.Kind,
		Frequency:       t.Frequency,
		Goal:            t.Goal,
		CategoryID:      t.CategoryID,
		StartDate:       t.StartDate,
		Status:          t.Status,
		IsTemplate:      false,
		ParentTaskID:    &parent,
		PeriodStartDate: periodStart,
		PeriodEndDate:   periodEnd,
	}
}

func (t *Task) IsArchived() bool {
	return t.Status == StatusArchived
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	CategoryID      *uint
	Kind            *TaskKind
	Frequency       *Frequency
	PeriodStartDate *Date
	ParentTaskID    *uint
	TemplatesOnly   bool
	OpenOnly        bool
	IncludeArchived bool
	Search          string
	Page            Page
}
