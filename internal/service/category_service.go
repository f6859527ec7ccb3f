package service

import (
	"context"
	"log"
	"regexp"
	"strings"

	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

// DefaultColor is used when a category is created without one.
const DefaultColor = "#3B82F6"

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var defaultCategories = []model.Category{
	{Name: "Work", Color: "#3B82F6"},
	{Name: "Personal", Color: "#F97316"},
	{Name: "Fitness", Color: "#22C55E"},
	{Name: "Learning", Color: "#A855F7"},
}

// CategoryInput represents data required to create a category.
type CategoryInput struct {
	Name  string
	Color string
}

// CategoryUpdate lists the editable fields of a category; nil fields stay unchanged.
type CategoryUpdate struct {
	Name  *string
	Color *string
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	color, err := normalizeColor(input.Color)
	if err != nil {
		return nil, err
	}

	category := &model.Category{Name: name, Color: color, Status: model.StatusActive}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	log.Printf("[info] category created id=%d name=%q", category.ID, category.Name)
	return category, nil
}

// GetOrCreate resolves a category by name for chat input, creating it with
// the default color when missing.
func (s *CategoryService) GetOrCreate(ctx context.Context, name string) (*model.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return s.store.Categories.GetOrCreate(ctx, name, DefaultColor)
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, filter model.CategoryFilter) ([]model.Category, int64, error) {
	return s.store.Categories.List(ctx, filter)
}

func (s *CategoryService) Update(ctx context.Context, id uint, upd CategoryUpdate) (*model.Category, error) {
	var category *model.Category
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		category, err = tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		if category.IsArchived() {
			return conflict("category %d is archived", id)
		}
		if upd.Name != nil {
			name, err := validateName(*upd.Name)
			if err != nil {
				return err
			}
			category.Name = name
		}
		if upd.Color != nil {
			color, err := normalizeColor(*upd.Color)
			if err != nil {
				return err
			}
			category.Color = color
		}
		return tx.Categories.Save(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Archive soft-deletes a category together with its active tasks.
func (s *CategoryService) Archive(ctx context.Context, id uint) error {
	var archivedTasks int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		category, err := tx.Categories.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "category", id)
		}
		if category.IsArchived() {
			return nil
		}
		category.Status = model.StatusArchived
		if err := tx.Categories.Save(ctx, category); err != nil {
			return err
		}
		archivedTasks, err = tx.Tasks.ArchiveByCategory(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	log.Printf("[info] category archived id=%d tasks=%d", id, archivedTasks)
	return nil
}

// EnsureDefaults seeds the default categories into an empty database.
func (s *CategoryService) EnsureDefaults(ctx context.Context) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		count, err := tx.Categories.Count(ctx)
		if err != nil || count > 0 {
			return err
		}
		for _, def := range defaultCategories {
			category := def
			category.Status = model.StatusActive
			if err := tx.Categories.Create(ctx, &category); err != nil {
				return err
			}
		}
		log.Printf("[info] seeded %d default categories", len(defaultCategories))
		return nil
	})
}

func normalizeColor(raw string) (string, error) {
	color := strings.TrimSpace(raw)
	if color == "" {
		return DefaultColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", invalid("color must be a hex value like #3B82F6, got %q", raw)
	}
	return strings.ToUpper(color), nil
}
