package model

import "time"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	Color     string    `gorm:"size:16;not null" json:"color"`
	Status    Status    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tasks     []Task    `gorm:"foreignKey:CategoryID" json:"-"`
}

func (c *Category) IsArchived() bool {
	return c.Status == StatusArchived
}

// CategoryFilter narrows category listings.
type CategoryFilter struct {
	Search          string
	IncludeArchived bool
	Page            Page
}
