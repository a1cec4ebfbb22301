package cartdto

import (
	"time"

	"github.com/google/uuid"

	"github.com/datasaz/cartengine-backend/pkg/enums"
)

// CartView represents the authoritative cart snapshot exposed through the API.
// All money fields are decimal strings with two fraction digits.
type CartView struct {
	ID             uuid.UUID      `json:"id"`
	SessionID      *string        `json:"session_id,omitempty"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	Subtotal       string         `json:"subtotal"`
	ShippingCost   string         `json:"shipping_cost"`
	DiscountAmount string         `json:"discount_amount"`
	TotalPrice     string         `json:"total_price"`
	Coupon         *CouponView    `json:"coupon,omitempty"`
	Items          []CartItemView `json:"items"`
	LastModified   time.Time      `json:"last_modified"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CartItemView describes each line item with its price snapshot.
type CartItemView struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	UnitPrice    string    `json:"unit_price"`
	LineSubtotal string    `json:"line_subtotal"`
	LineShipping string    `json:"line_shipping"`
}

// CouponView describes the coupon currently applied to the cart.
type CouponView struct {
	Code          string               `json:"code"`
	Category      enums.CouponCategory `json:"category"`
	Scope         enums.CouponScope    `json:"scope"`
	DiscountValue string               `json:"discount_value"`
}
