package model

import "time"

// ProgressEvent is one recorded session of progress against a task: minutes
// spent for TIME_BASED tasks, a count increment for YES_NO tasks.
type ProgressEvent struct {
	ID                string        `gorm:"primaryKey;size:64" json:"id"`
	TaskID            uint          `gorm:"not null;index:idx_progress_period,priority:1" json:"task_id"`
	PeriodID          string        `gorm:"size:64;not null;index:idx_progress_period,priority:2" json:"period_id"`
	Date              Date          `gorm:"size:10;not null;index" json:"date"`
	Status            SessionStatus `gorm:"size:16;not null" json:"status"`
	Magnitude         int           `gorm:"not null" json:"magnitude"`
	RemainingMinutes  *int          `json:"remaining_duration,omitempty"`
	IsPeriodCompleted bool          `gorm:"not null;default:false" json:"is_period_completed"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// TableName keeps the historical table name of the session ledger.
func (ProgressEvent) TableName() string {
	return "time_sessions"
}

// Counts reports whether the event contributes to its period total.
func (e *ProgressEvent) Counts() bool {
	return e.Status != SessionCancelled
}

// ProgressFilter narrows progress event listings.
type ProgressFilter struct {
	TaskID   *uint
	Date     *Date
	PeriodID string
	Page     Page
}
