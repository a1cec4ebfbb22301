package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponTracking records one redemption of a coupon by a user, with the
// order and scope-target context it was redeemed against. Per-user usage
// caps count these rows.
type CouponTracking struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID   uuid.UUID  `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid"`
	Used       bool       `gorm:"column:used;not null;default:true"`
	UsedAt     time.Time  `gorm:"column:used_at;autoCreateTime"`
}
