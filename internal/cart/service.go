package cart

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// View is a cart plus the totals derived from current catalog prices. The
// numbers are advisory; the binding snapshot happens at checkout.
type View struct {
	Cart     *models.Cart
	Lines    []LineView
	Subtotal decimal.Decimal
}

// LineView is one cart row priced at today's effective price.
type LineView struct {
	Item      models.CartItem
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Service defines cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	EnsureCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo        Repository
	productRepo products.Repository
}

// NewService wires a cart service with its repositories.
func NewService(repo Repository, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildView(cart)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, errors.New(errors.CodeInvalidQuantity, "quantity must be at least 1")
	}

	product, err := s.availableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItem(ctx, cart.ID, product.ID)
	switch {
	case err == nil:
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
			return nil, err
		}
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.Get(ctx, userID)
}

func (s *service) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, errors.New(errors.CodeInvalidQuantity, "quantity must be at least 1")
	}

	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, cart.ID, productID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "item is not in the cart")
		}
		return nil, err
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, cart.ID, productID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "item is not in the cart")
		}
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cartForUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.ClearItems(ctx, cart.ID)
}

// EnsureCart returns the user's cart, creating one inside the caller's
// transaction when absent. Registration uses this so every account has a cart
// from day one.
func (s *service) EnsureCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	cart, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := repo.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) cartForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	return s.EnsureCart(ctx, nil, userID)
}

func (s *service) availableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "menu item not found")
		}
		return nil, err
	}
	if !product.IsAvailable {
		return nil, errors.New(errors.CodeStateConflict, "menu item is not available")
	}
	return product, nil
}

func buildView(cart *models.Cart) (*View, error) {
	view := &View{Cart: cart, Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		unit := pricing.EffectivePrice(*item.Product)
		lineTotal, err := pricing.LineTotal(unit, item.Quantity)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, LineView{
			Item:      item,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	view.Subtotal = pricing.Round(view.Subtotal)
	return view, nil
}
