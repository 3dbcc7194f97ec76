package orders

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
)

// DashboardStats aggregates order counts and revenue for the staff dashboard.
type DashboardStats struct {
	TotalOrders      int64
	CountsByStatus   map[enums.OrderStatus]int64
	DeliveredRevenue decimal.Decimal
	CustomerCount    int64
}

// Service defines order tracking and fulfilment operations.
type Service interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	txRunner txRunner
	outbox   *outbox.Service
}

// NewService wires the order service and validates its dependencies.
func NewService(repo Repository, runner txRunner, outboxSvc *outbox.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, txRunner: runner, outbox: outboxSvc}, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Other customers' orders look like they don't exist.
	if order.UserID != userID {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, "", err
	}
	rows, next := trimPage(rows, params)
	return rows, next, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, "", errors.New(errors.CodeValidation, "invalid order status filter")
	}
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, "", err
	}
	rows, next := trimPage(rows, params)
	return rows, next, nil
}

// UpdateStatus moves the order along its lifecycle and records the change for
// downstream notification.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid order status")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, next))
	}

	previous := order.Status
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, next); err != nil {
			return err
		}
		return s.emitStatusChanged(ctx, tx, order, previous, next)
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	return order, nil
}

// Cancel lets a customer withdraw their own order while it is still pending.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, errors.New(errors.CodeStateConflict, "only pending orders can be cancelled")
	}

	previous := order.Status
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		return s.emitStatusChanged(ctx, tx, order, previous, enums.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	return order, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenueRaw, err := s.repo.DeliveredRevenue(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := decimal.NewFromString(revenueRaw)
	if err != nil {
		revenue = decimal.Zero
	}

	customers, err := s.repo.CustomerCount(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		CountsByStatus:   make(map[enums.OrderStatus]int64, len(counts)),
		DeliveredRevenue: revenue.Round(2),
		CustomerCount:    customers,
	}
	for _, row := range counts {
		stats.CountsByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}
	return stats, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from, to enums.OrderStatus) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
			"from":     from.String(),
			"to":       to.String(),
		},
		Version: 1,
	})
}

func trimPage(rows []models.Order, params pagination.Params) ([]models.Order, string) {
	limit := pagination.NormalizeLimit(params.Limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return rows, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
}
