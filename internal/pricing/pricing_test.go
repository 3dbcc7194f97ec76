package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestEffectivePrice_DiscountWins(t *testing.T) {
	discount := dec(t, "450")
	product := models.Product{
		Price:         dec(t, "500"),
		DiscountPrice: &discount,
	}
	assert.Equal(t, "450.00", EffectivePrice(product).StringFixed(2))

	product.DiscountPrice = nil
	assert.Equal(t, "500.00", EffectivePrice(product).StringFixed(2))
}

func TestLineTotal(t *testing.T) {
	total, err := LineTotal(dec(t, "450"), 3)
	require.NoError(t, err)
	assert.Equal(t, "1350.00", total.StringFixed(2))
}

func TestLineTotal_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := LineTotal(dec(t, "100"), qty)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidQuantity))
	}
}

func TestSubtotalAndOrderTotal(t *testing.T) {
	discount := dec(t, "450")
	item := models.Product{Price: dec(t, "500"), DiscountPrice: &discount}
	side := models.Product{Price: dec(t, "220")}

	subtotal, err := Subtotal([]Line{
		{UnitPrice: EffectivePrice(item), Quantity: 3},
		{UnitPrice: EffectivePrice(side), Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "1570.00", subtotal.StringFixed(2))

	total := OrderTotal(subtotal, decimal.Zero, decimal.Zero)
	assert.Equal(t, "1570.00", total.StringFixed(2))
}

func TestOrderTotal_DiscountClampsAtZero(t *testing.T) {
	total := OrderTotal(dec(t, "80.00"), decimal.Zero, dec(t, "100.00"))
	assert.Equal(t, "0.00", total.StringFixed(2))
}

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, "1.01", Round(dec(t, "1.005")).StringFixed(2))
	assert.Equal(t, "2.35", Round(dec(t, "2.345")).StringFixed(2))
	assert.Equal(t, "-1.01", Round(dec(t, "-1.005")).StringFixed(2))
}

func TestLineTotal_ExactDecimalArithmetic(t *testing.T) {
	// 0.1 + 0.2 style amounts stay exact with decimals
	total, err := LineTotal(dec(t, "0.10"), 3)
	require.NoError(t, err)
	assert.Equal(t, "0.30", total.StringFixed(2))
}
