package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
)

type fakeCartRepository struct {
	carts map[uuid.UUID]*models.Cart // keyed by user ID
	items map[uuid.UUID]*models.CartItem
	prods map[uuid.UUID]*models.Product
}

func newFakeCartRepository() *fakeCartRepository {
	return &fakeCartRepository{
		carts: map[uuid.UUID]*models.Cart{},
		items: map[uuid.UUID]*models.CartItem{},
		prods: map[uuid.UUID]*models.Product{},
	}
}

func (f *fakeCartRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeCartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cart
	copied.Items = nil
	for _, item := range f.items {
		if item.CartID == cart.ID {
			row := *item
			if product, ok := f.prods[item.ProductID]; ok {
				row.Product = product
			}
			copied.Items = append(copied.Items, row)
		}
	}
	return &copied, nil
}

func (f *fakeCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCartRepository) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	for _, item := range f.items {
		if item.CartID == cartID && item.ProductID == productID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeCartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := f.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *fakeCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(f.items, itemID)
	return nil
}

func (f *fakeCartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range f.items {
		if item.CartID == cartID {
			delete(f.items, id)
		}
	}
	return nil
}

type fakeProductRepository struct {
	prods map[uuid.UUID]*models.Product
}

func (f *fakeProductRepository) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeProductRepository) List(ctx context.Context, filter products.ListFilter, params pagination.Params) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.prods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepository) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	for _, id := range ids {
		if product, ok := f.prods[id]; ok {
			rows = append(rows, *product)
		}
	}
	return rows, nil
}

func (f *fakeProductRepository) Create(ctx context.Context, product *models.Product) error { return nil }
func (f *fakeProductRepository) Update(ctx context.Context, product *models.Product) error { return nil }
func (f *fakeProductRepository) Delete(ctx context.Context, id uuid.UUID) error            { return nil }

func newTestService(t *testing.T) (Service, *fakeCartRepository) {
	t.Helper()
	repo := newFakeCartRepository()
	productRepo := &fakeProductRepository{prods: repo.prods}
	svc, err := NewService(repo, productRepo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo
}

func seedProduct(repo *fakeCartRepository, price, discount string, available bool) *models.Product {
	product := &models.Product{
		ID:          uuid.New(),
		Name:        "Chapli Kebab",
		Price:       decimal.RequireFromString(price),
		IsAvailable: available,
	}
	if discount != "" {
		d := decimal.RequireFromString(discount)
		product.DiscountPrice = &d
	}
	repo.prods[product.ID] = product
	return product
}

func TestService_AddItemCreatesCartAndLine(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	product := seedProduct(repo, "500", "450", true)

	view, err := svc.AddItem(context.Background(), userID, product.ID, 3)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(view.Lines))
	}
	line := view.Lines[0]
	if line.Item.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Item.Quantity)
	}
	if line.UnitPrice.StringFixed(2) != "450.00" {
		t.Fatalf("expected discounted unit price, got %s", line.UnitPrice.StringFixed(2))
	}
	if view.Subtotal.StringFixed(2) != "1350.00" {
		t.Fatalf("expected subtotal 1350.00, got %s", view.Subtotal.StringFixed(2))
	}
}

func TestService_AddItemIncrementsExistingLine(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	product := seedProduct(repo, "220", "", true)

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("first AddItem error: %v", err)
	}
	view, err := svc.AddItem(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("second AddItem error: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Item.Quantity != 3 {
		t.Fatalf("expected single line with quantity 3, got %+v", view.Lines)
	}
}

func TestService_AddItemValidation(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	product := seedProduct(repo, "220", "", true)

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 0); !errors.HasCode(err, errors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userID, uuid.New(), 1); !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	unavailable := seedProduct(repo, "220", "", false)
	if _, err := svc.AddItem(context.Background(), userID, unavailable.ID, 1); !errors.HasCode(err, errors.CodeStateConflict) {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestService_SetItemQuantityAndRemove(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	product := seedProduct(repo, "100", "", true)

	if _, err := svc.AddItem(context.Background(), userID, product.ID, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	view, err := svc.SetItemQuantity(context.Background(), userID, product.ID, 5)
	if err != nil {
		t.Fatalf("SetItemQuantity error: %v", err)
	}
	if view.Lines[0].Item.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Lines[0].Item.Quantity)
	}

	if _, err := svc.SetItemQuantity(context.Background(), userID, product.ID, 0); !errors.HasCode(err, errors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}

	view, err = svc.RemoveItem(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("RemoveItem error: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(view.Lines))
	}

	if _, err := svc.RemoveItem(context.Background(), userID, product.ID); !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_ClearEmptiesCart(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()
	first := seedProduct(repo, "100", "", true)
	second := seedProduct(repo, "200", "", true)

	if _, err := svc.AddItem(context.Background(), userID, first.ID, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userID, second.ID, 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	if err := svc.Clear(context.Background(), userID); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	view, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(view.Lines) != 0 || !view.Subtotal.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}
