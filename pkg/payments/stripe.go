package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("stripe api key is required")

var minorUnitFactor = decimal.NewFromInt(100)

// CheckoutLine is one order line forwarded to the payment provider.
type CheckoutLine struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CheckoutSession is the provider session handed back to the client.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionCreator is the surface the checkout controller depends on.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, orderID string, lines []CheckoutLine) (*CheckoutSession, error)
}

// Client wraps Stripe's API client with the configured currency and redirect URLs.
type Client struct {
	api *stripe.Client
	cfg config.PaymentConfig
}

// NewClient initializes Stripe once with the configured secret key.
func NewClient(ctx context.Context, cfg config.PaymentConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.StripeAPIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, "stripe client initialized")
	}

	return &Client{api: api, cfg: cfg}, nil
}

// CreateCheckoutSession opens a hosted payment page for the order lines.
// Amounts are converted to minor units for the wire.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID string, lines []CheckoutLine) (*CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if len(lines) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	items := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for %q", line.Quantity, line.Name)
		}
		unitAmount := line.UnitPrice.Mul(minorUnitFactor).Round(0).IntPart()
		items = append(items, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String(c.cfg.Currency),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(unitAmount),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         items,
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(orderID),
	}

	sess, err := c.api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
