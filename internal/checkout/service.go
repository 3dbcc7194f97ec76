package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/cart"
	"github.com/shinwarieats/restaurant-backend/internal/loyalty"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
	"github.com/shinwarieats/restaurant-backend/pkg/payments"
)

// Input carries everything a customer submits when placing an order.
type Input struct {
	CustomerName string
	Phone        string
	Address      string
	Notes        *string
	BranchID     *uuid.UUID
	RedeemPoints int
}

// Result is the outcome of a placed order.
type Result struct {
	Order          *models.Order
	PointsRedeemed int
	Discount       decimal.Decimal
	PointsEarned   int
}

// Service turns carts into orders.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
	CreatePaymentSession(ctx context.Context, userID uuid.UUID, staff bool, orderID uuid.UUID) (*payments.CheckoutSession, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	cartRepo    cart.Repository
	orderRepo   orders.Repository
	loyalty     loyalty.Service
	txRunner    txRunner
	outbox      *outbox.Service
	sessions    payments.SessionCreator
	deliveryFee decimal.Decimal
	logg        *logger.Logger
}

// NewService wires the checkout orchestrator and validates its dependencies.
func NewService(
	cartRepo cart.Repository,
	orderRepo orders.Repository,
	loyaltySvc loyalty.Service,
	runner txRunner,
	outboxSvc *outbox.Service,
	sessionCreator payments.SessionCreator,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	fee, err := cfg.DeliveryFeeValue()
	if err != nil {
		return nil, err
	}
	return &service{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		loyalty:     loyaltySvc,
		txRunner:    runner,
		outbox:      outboxSvc,
		sessions:    sessionCreator,
		deliveryFee: pricing.Round(fee),
		logg:        logg,
	}, nil
}

// PlaceOrder snapshots the cart into an order, applies the requested loyalty
// redemption, awards points on the amount actually paid, and clears the cart.
// Everything happens in one transaction so a failed step leaves no trace.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *Result
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		userCart, err := cartRepo.GetByUserID(ctx, userID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeEmptyCart, "cart is empty")
			}
			return err
		}
		if len(userCart.Items) == 0 {
			return errors.New(errors.CodeEmptyCart, "cart is empty")
		}

		order := &models.Order{
			ID:           uuid.New(),
			UserID:       userID,
			BranchID:     input.BranchID,
			Status:       enums.OrderStatusPending,
			DeliveryFee:  s.deliveryFee,
			CustomerName: strings.TrimSpace(input.CustomerName),
			Phone:        strings.TrimSpace(input.Phone),
			Address:      strings.TrimSpace(input.Address),
			Notes:        input.Notes,
		}

		subtotal := decimal.Zero
		for _, item := range userCart.Items {
			if item.Product == nil {
				return errors.New(errors.CodeStateConflict, "cart references a removed menu item")
			}
			if !item.Product.IsAvailable {
				return errors.New(errors.CodeStateConflict,
					fmt.Sprintf("%s is no longer available", item.Product.Name))
			}
			unit := pricing.EffectivePrice(*item.Product)
			lineTotal, err := pricing.LineTotal(unit, item.Quantity)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, models.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				UnitPrice:   unit,
				Quantity:    item.Quantity,
				LineTotal:   lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		order.Subtotal = pricing.Round(subtotal)
		gross := pricing.OrderTotal(order.Subtotal, s.deliveryFee, decimal.Zero)
		order.LoyaltyDiscount = decimal.Zero.Round(pricing.Scale)
		order.Total = gross

		// The order row must exist before ledger rows can reference it.
		if err := orderRepo.Create(ctx, order); err != nil {
			return err
		}

		if input.RedeemPoints != 0 {
			applied, discount, err := s.loyalty.ApplyRedemption(ctx, tx, userID, input.RedeemPoints, gross, order.ID)
			if err != nil {
				return err
			}
			if applied > 0 {
				order.PointsRedeemed = applied
				order.LoyaltyDiscount = discount
				order.Total = pricing.OrderTotal(order.Subtotal, s.deliveryFee, discount)
			}
		}

		earned, err := s.loyalty.AwardPointsForOrder(ctx, tx, userID, order.ID, order.Total)
		if err != nil {
			return err
		}
		order.PointsEarned = earned

		if err := orderRepo.Update(ctx, order); err != nil {
			return err
		}
		if err := cartRepo.ClearItems(ctx, userCart.ID); err != nil {
			return err
		}
		if err := s.emitOrderPlaced(ctx, tx, order); err != nil {
			return err
		}

		result = &Result{
			Order:          order,
			PointsRedeemed: order.PointsRedeemed,
			Discount:       order.LoyaltyDiscount,
			PointsEarned:   order.PointsEarned,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		fields := map[string]any{
			"order_id":        result.Order.ID.String(),
			"user_id":         userID.String(),
			"total":           result.Order.Total.String(),
			"points_redeemed": result.PointsRedeemed,
			"points_earned":   result.PointsEarned,
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "order placed")
	}
	return result, nil
}

// CreatePaymentSession starts an online payment for a persisted order. The
// session covers the full order total as a single line, and the session id is
// stored on the order for later reconciliation.
func (s *service) CreatePaymentSession(ctx context.Context, userID uuid.UUID, staff bool, orderID uuid.UUID) (*payments.CheckoutSession, error) {
	if s.sessions == nil {
		return nil, errors.New(errors.CodeDependency, "payment gateway is not configured")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.UserID != userID && !staff {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if order.Status.IsTerminal() {
		return nil, errors.New(errors.CodeStateConflict, "order can no longer be paid")
	}
	if order.Total.Sign() <= 0 {
		return nil, errors.New(errors.CodeStateConflict, "order has nothing to pay")
	}

	session, err := s.sessions.CreateCheckoutSession(ctx, order.ID.String(), []payments.CheckoutLine{{
		Name:      fmt.Sprintf("Order #%s", order.ID),
		UnitPrice: order.Total,
		Quantity:  1,
	}})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SetPaymentRef(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) emitOrderPlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: map[string]any{
			"order_id":      order.ID.String(),
			"user_id":       order.UserID.String(),
			"total":         order.Total.String(),
			"customer_name": order.CustomerName,
		},
		Version: 1,
	})
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return errors.New(errors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return errors.New(errors.CodeValidation, "phone is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return errors.New(errors.CodeValidation, "address is required")
	}
	if input.RedeemPoints < 0 {
		return errors.New(errors.CodeInvalidRedemption, "redeem points cannot be negative")
	}
	return nil
}
