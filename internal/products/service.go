package products

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
)

// Service defines catalog operations for menu items.
type Service interface {
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Product, error)
}

// CreateProductInput carries a new menu item.
type CreateProductInput struct {
	CategoryID    uuid.UUID
	BranchID      *uuid.UUID
	Name          string
	Description   *string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	ImageURL      *string
	IsAvailable   bool
	IsFeatured    bool
}

// UpdateProductInput carries partial menu item changes; nil fields are untouched.
type UpdateProductInput struct {
	CategoryID    *uuid.UUID
	BranchID      *uuid.UUID
	ClearBranch   bool
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	ClearDiscount bool
	ImageURL      *string
	IsAvailable   *bool
	IsFeatured    *bool
}

type service struct {
	repo Repository
}

// NewService wires a product service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, string, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "menu item not found")
	}
	return product, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, notFoundOr(err, "menu item not found")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if input.CategoryID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "category id is required")
	}
	if err := validatePricing(input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:            uuid.New(),
		CategoryID:    input.CategoryID,
		BranchID:      input.BranchID,
		Name:          name,
		Slug:          Slugify(name),
		Description:   input.Description,
		Price:         input.Price.Round(2),
		ImageURL:      input.ImageURL,
		IsAvailable:   input.IsAvailable,
		IsFeatured:    input.IsFeatured,
	}
	if input.DiscountPrice != nil {
		rounded := input.DiscountPrice.Round(2)
		product.DiscountPrice = &rounded
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_products_slug") {
			return nil, errors.New(errors.CodeConflict, "a menu item with this name already exists")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New(errors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
		product.Slug = Slugify(name)
	}
	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			return nil, errors.New(errors.CodeValidation, "category id cannot be empty")
		}
		product.CategoryID = *input.CategoryID
	}
	if input.ClearBranch {
		product.BranchID = nil
	} else if input.BranchID != nil {
		product.BranchID = input.BranchID
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		rounded := input.Price.Round(2)
		product.Price = rounded
	}
	if input.ClearDiscount {
		product.DiscountPrice = nil
	} else if input.DiscountPrice != nil {
		rounded := input.DiscountPrice.Round(2)
		product.DiscountPrice = &rounded
	}
	if err := validatePricing(product.Price, product.DiscountPrice); err != nil {
		return nil, err
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}

	product.Category = nil
	if err := s.repo.Update(ctx, product); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_products_slug") {
			return nil, errors.New(errors.CodeConflict, "a menu item with this name already exists")
		}
		return nil, err
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Product, error) {
	flag := available
	return s.Update(ctx, id, UpdateProductInput{IsAvailable: &flag})
}

func validatePricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.Sign() <= 0 {
		return errors.New(errors.CodeValidation, "price must be positive")
	}
	if discount != nil {
		if discount.Sign() <= 0 {
			return errors.New(errors.CodeValidation, "discount price must be positive")
		}
		if discount.GreaterThanOrEqual(price) {
			return errors.New(errors.CodeValidation, "discount price must be below the regular price")
		}
	}
	return nil
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name into a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func notFoundOr(err error, message string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New(errors.CodeNotFound, message)
	}
	return err
}
