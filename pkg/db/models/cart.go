package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single persistent cart for a session or a user. Exactly one
// of SessionID and UserID is set; the totals columns are recomputed on every
// mutation and never derived client-side.
type Cart struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      *string         `gorm:"column:session_id;uniqueIndex"`
	UserID         *uuid.UUID      `gorm:"column:user_id;type:uuid;uniqueIndex"`
	CouponID       *uuid.UUID      `gorm:"column:coupon_id;type:uuid"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(19,2);not null;default:0"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(19,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(19,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(19,2);not null;default:0"`
	Version        int64           `gorm:"column:version;not null;default:0"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Coupon         *Coupon         `gorm:"foreignKey:CouponID"`
	LastModified   time.Time       `gorm:"column:last_modified;autoUpdateTime"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// IsAnonymous reports whether the cart belongs to a browser session rather
// than an authenticated user.
func (c *Cart) IsAnonymous() bool {
	return c.UserID == nil
}
