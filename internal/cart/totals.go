package cart

import (
	"github.com/shopspring/decimal"

	"github.com/datasaz/cartengine-backend/internal/coupon"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/money"
)

// Totals is the derived pricing state of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives cart totals from item snapshots and the applied
// coupon. Passing a nil coupon yields a zero discount. The grand total never
// drops below zero.
func ComputeTotals(items []models.CartItem, applied *models.Coupon) Totals {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineSubtotal())
		shipping = shipping.Add(items[i].LineShipping())
	}
	subtotal = money.Round(subtotal)
	shipping = money.Round(shipping)

	discount := money.Zero
	if applied != nil {
		discount = coupon.Discount(applied, coupon.EligibleSubtotal(applied, items))
	}

	total := money.FloorZero(subtotal.Add(shipping).Sub(discount))
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    money.Round(total),
	}
}

// applyTotals writes the derived totals back onto the cart row.
func applyTotals(c *models.Cart, t Totals) {
	c.Subtotal = t.Subtotal
	c.ShippingCost = t.Shipping
	c.DiscountAmount = t.Discount
	c.TotalPrice = t.Total
}
