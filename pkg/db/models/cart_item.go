package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem snapshots the product attributes pricing depends on at the time
// the item was added. Totals are computed from these snapshots, not from the
// live product row.
type CartItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID        `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID          uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	CompanyID          uuid.UUID        `gorm:"column:company_id;type:uuid;not null"`
	CategoryID         uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	ProductName        string           `gorm:"column:product_name;not null"`
	Quantity           int              `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal  `gorm:"column:unit_price;type:numeric(19,2);not null"`
	ShippingCost       decimal.Decimal  `gorm:"column:shipping_cost;type:numeric(19,2);not null;default:0"`
	AdditionalShipping *decimal.Decimal `gorm:"column:additional_shipping;type:numeric(19,2)"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// LineSubtotal is the snapshot unit price times quantity.
func (i *CartItem) LineSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineShipping charges the base shipping cost for the first unit and the
// additional rate for each further unit. A missing additional rate falls
// back to the base rate.
func (i *CartItem) LineShipping() decimal.Decimal {
	if i.Quantity <= 0 {
		return decimal.Zero
	}
	extra := i.ShippingCost
	if i.AdditionalShipping != nil {
		extra = *i.AdditionalShipping
	}
	return i.ShippingCost.Add(extra.Mul(decimal.NewFromInt(int64(i.Quantity - 1))))
}
