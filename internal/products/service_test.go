package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
)

type fakeRepository struct {
	rows map[uuid.UUID]*models.Product
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: map[uuid.UUID]*models.Product{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	var rows []models.Product
	for _, row := range f.rows {
		if filter.AvailableOnly && !row.IsAvailable {
			continue
		}
		if filter.FeaturedOnly && !row.IsFeatured {
			continue
		}
		if filter.BranchID != nil && row.BranchID != nil && *row.BranchID != *filter.BranchID {
			continue
		}
		if filter.MinPrice != nil && row.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && row.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	for _, row := range f.rows {
		if row.Slug == slug {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (f *fakeRepository) Create(ctx context.Context, product *models.Product) error {
	copied := *product
	f.rows[product.ID] = &copied
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, product *models.Product) error {
	copied := *product
	f.rows[product.ID] = &copied
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo
}

func TestCreateSlugifiesName(t *testing.T) {
	svc, _ := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{
		CategoryID:  uuid.New(),
		Name:        "Chicken Karahi (Full)",
		Price:       decimal.RequireFromString("24.99"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if product.Slug != "chicken-karahi-full" {
		t.Fatalf("slug = %q", product.Slug)
	}
}

func TestCreateRejectsDiscountAtOrAbovePrice(t *testing.T) {
	svc, _ := newTestService(t)

	discount := decimal.RequireFromString("10.00")
	_, err := svc.Create(context.Background(), CreateProductInput{
		CategoryID:    uuid.New(),
		Name:          "Lamb Chops",
		Price:         decimal.RequireFromString("10.00"),
		DiscountPrice: &discount,
		IsAvailable:   true,
	})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestUpdateClearsBranchAndDiscount(t *testing.T) {
	svc, _ := newTestService(t)

	branchID := uuid.New()
	discount := decimal.RequireFromString("8.00")
	product, err := svc.Create(context.Background(), CreateProductInput{
		CategoryID:    uuid.New(),
		BranchID:      &branchID,
		Name:          "Seekh Kebab",
		Price:         decimal.RequireFromString("9.50"),
		DiscountPrice: &discount,
		IsAvailable:   true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), product.ID, UpdateProductInput{
		ClearBranch:   true,
		ClearDiscount: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.BranchID != nil {
		t.Fatalf("branch id = %v, want nil", updated.BranchID)
	}
	if updated.DiscountPrice != nil {
		t.Fatalf("discount = %v, want nil", updated.DiscountPrice)
	}
}

func TestSetAvailabilityFlipsFlag(t *testing.T) {
	svc, _ := newTestService(t)

	product, err := svc.Create(context.Background(), CreateProductInput{
		CategoryID:  uuid.New(),
		Name:        "Mango Lassi",
		Price:       decimal.RequireFromString("4.50"),
		IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.SetAvailability(context.Background(), product.ID, false)
	if err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if updated.IsAvailable {
		t.Fatal("expected item off the menu")
	}
}

func TestGetByIDMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), uuid.New())
	if !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
