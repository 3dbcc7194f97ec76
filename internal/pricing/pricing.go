package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// Scale is the number of decimal places every monetary amount is rounded to.
const Scale = 2

// Round applies half-up rounding at the monetary scale.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// EffectivePrice returns the unit price customers pay: the discount price when
// one is set, otherwise the regular price.
func EffectivePrice(product models.Product) decimal.Decimal {
	if product.DiscountPrice != nil {
		return Round(*product.DiscountPrice)
	}
	return Round(product.Price)
}

// LineTotal computes unit price times quantity, rounded at the monetary scale.
func LineTotal(unitPrice decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, errors.New(errors.CodeInvalidQuantity, "quantity must be at least 1")
	}
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity)))), nil
}

// Line pairs a unit price with a quantity for subtotal computation.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal sums the line totals of all lines.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		lineTotal, err := LineTotal(line.UnitPrice, line.Quantity)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lineTotal)
	}
	return Round(total), nil
}

// OrderTotal applies the delivery fee and the redemption discount to the
// subtotal. The result never drops below zero.
func OrderTotal(subtotal, deliveryFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(deliveryFee).Sub(discount)
	if total.Sign() < 0 {
		total = decimal.Zero
	}
	return Round(total)
}
