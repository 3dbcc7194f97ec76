package categories

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/products"
	dbpkg "github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// Service defines category operations.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCategoryInput carries a new category.
type CreateCategoryInput struct {
	Name        string
	Description *string
	SortOrder   int
	IsActive    bool
}

// UpdateCategoryInput carries partial category changes; nil fields are untouched.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	SortOrder   *int
	IsActive    *bool
}

type service struct {
	repo Repository
}

// NewService wires a category service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		return nil, err
	}
	return category, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}

	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        products.Slugify(name),
		Description: input.Description,
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_categories_slug") {
			return nil, errors.New(errors.CodeConflict, "a category with this name already exists")
		}
		return nil, err
	}
	return category, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New(errors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
		category.Slug = products.Slugify(name)
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_categories_slug") {
			return nil, errors.New(errors.CodeConflict, "a category with this name already exists")
		}
		return nil, err
	}
	return category, nil
}

// Delete refuses to remove a category that still has menu items.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "category not found")
		}
		return err
	}

	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New(errors.CodeStateConflict, "category still has menu items")
	}
	return s.repo.Delete(ctx, id)
}
