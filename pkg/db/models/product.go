package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog row the cart snapshots from. OfferPrice, when set,
// takes precedence over Price.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID          uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index"`
	CategoryID         uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index"`
	Name               string           `gorm:"column:name;not null"`
	Price              decimal.Decimal  `gorm:"column:price;type:numeric(19,2);not null"`
	OfferPrice         *decimal.Decimal `gorm:"column:offer_price;type:numeric(19,2)"`
	ShippingCost       decimal.Decimal  `gorm:"column:shipping_cost;type:numeric(19,2);not null;default:0"`
	AdditionalShipping *decimal.Decimal `gorm:"column:additional_shipping;type:numeric(19,2)"`
	Stock              int              `gorm:"column:stock;not null;default:0"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice prefers the offer price when one is present.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.OfferPrice != nil {
		return *p.OfferPrice
	}
	return p.Price
}
