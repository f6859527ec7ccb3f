package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one connection or transaction.
type Store struct {
	db         *gorm.DB
	Categories *CategoryRepository
	Tasks      *TaskRepository
	Progress   *ProgressRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Categories: NewCategoryRepository(db),
		Tasks:      NewTaskRepository(db),
		Progress:   NewProgressRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
