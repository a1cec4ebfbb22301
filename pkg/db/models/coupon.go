package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/datasaz/cartengine-backend/pkg/enums"
)

// Coupon is a discount definition. Scope narrows which cart items the
// discount applies to; TargetID carries the company, category or product the
// scope points at and is null for global coupons.
type Coupon struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string               `gorm:"column:code;not null;uniqueIndex"`
	State          enums.CouponState    `gorm:"column:state;not null;default:'active'"`
	Category       enums.CouponCategory `gorm:"column:category;not null"`
	Scope          enums.CouponScope    `gorm:"column:scope;not null;default:'global'"`
	TargetID       *uuid.UUID           `gorm:"column:target_id;type:uuid"`
	DiscountValue  decimal.Decimal      `gorm:"column:discount_value;type:numeric(19,2);not null"`
	MinOrderAmount decimal.Decimal      `gorm:"column:min_order_amount;type:numeric(19,2);not null;default:0"`
	StartDate      *time.Time           `gorm:"column:start_date"`
	EndDate        *time.Time           `gorm:"column:end_date"`
	MaxUses        *int                 `gorm:"column:max_uses"`
	MaxUsesPerUser *int                 `gorm:"column:max_uses_per_user"`
	UsedCount      int                  `gorm:"column:used_count;not null;default:0"`
	Version        int64                `gorm:"column:version;not null;default:0"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// WithinWindow reports whether now falls inside the coupon's validity
// window. A nil boundary is open on that side.
func (c *Coupon) WithinWindow(now time.Time) bool {
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return true
}
