package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
)

type fakeRepository struct {
	rows map[uuid.UUID]*models.Review
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: map[uuid.UUID]*models.Review{}}
}

func (f *fakeRepository) Create(ctx context.Context, review *models.Review) error {
	for _, row := range f.rows {
		if row.ProductID == review.ProductID && row.UserID == review.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	copied := *review
	f.rows[review.ID] = &copied
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, review *models.Review) error {
	copied := *review
	f.rows[review.ID] = &copied
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *review
	return &copied, nil
}

func (f *fakeRepository) GetByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*models.Review, error) {
	for _, row := range f.rows {
		if row.ProductID == productID && row.UserID == userID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	var rows []models.Review
	for _, row := range f.rows {
		if row.ProductID == productID {
			rows = append(rows, *row)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

type fakeProductRepository struct {
	rows map[uuid.UUID]*models.Product
}

func (f *fakeProductRepository) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeProductRepository) List(ctx context.Context, filter products.ListFilter, params pagination.Params) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepository) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepository) Create(ctx context.Context, product *models.Product) error {
	f.rows[product.ID] = product
	return nil
}

func (f *fakeProductRepository) Update(ctx context.Context, product *models.Product) error {
	f.rows[product.ID] = product
	return nil
}

func (f *fakeProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rows, id)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository, *models.Product) {
	t.Helper()

	repo := newFakeRepository()
	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Seekh Kebab",
		Price:       decimal.RequireFromString("350.00"),
		IsAvailable: true,
	}
	productRepo := &fakeProductRepository{rows: map[uuid.UUID]*models.Product{product.ID: product}}

	svc, err := NewService(repo, productRepo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, product
}

func TestSubmitCreatesThenReplaces(t *testing.T) {
	svc, repo, product := newTestService(t)
	userID := uuid.New()

	comment := "great"
	first, err := svc.Submit(context.Background(), userID, SubmitInput{
		ProductID: product.ID,
		Rating:    4,
		Comment:   &comment,
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Rating != 4 {
		t.Fatalf("rating = %d", first.Rating)
	}

	second, err := svc.Submit(context.Background(), userID, SubmitInput{
		ProductID: product.ID,
		Rating:    2,
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second submit created a new review")
	}
	if second.Rating != 2 || second.Comment != nil {
		t.Fatalf("review not replaced: %+v", second)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("reviews stored = %d, want 1", len(repo.rows))
	}
}

func TestSubmitValidatesRatingAndProduct(t *testing.T) {
	svc, _, product := newTestService(t)
	userID := uuid.New()

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Submit(context.Background(), userID, SubmitInput{ProductID: product.ID, Rating: rating}); !errors.HasCode(err, errors.CodeValidation) {
			t.Fatalf("rating %d: err = %v, want VALIDATION_ERROR", rating, err)
		}
	}

	if _, err := svc.Submit(context.Background(), userID, SubmitInput{ProductID: uuid.New(), Rating: 3}); !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("unknown product: err = %v, want NOT_FOUND", err)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	svc, repo, product := newTestService(t)
	owner := uuid.New()

	review, err := svc.Submit(context.Background(), owner, SubmitInput{ProductID: product.ID, Rating: 5})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Delete(context.Background(), uuid.New(), enums.UserRoleCustomer, review.ID); !errors.HasCode(err, errors.CodeForbidden) {
		t.Fatalf("stranger delete: err = %v, want FORBIDDEN", err)
	}
	if err := svc.Delete(context.Background(), uuid.New(), enums.UserRoleStaff, review.ID); err != nil {
		t.Fatalf("staff delete: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("review not deleted")
	}

	if err := svc.Delete(context.Background(), owner, enums.UserRoleCustomer, review.ID); !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("deleted twice: err = %v, want NOT_FOUND", err)
	}
}
