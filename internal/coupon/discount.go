package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
	"github.com/datasaz/cartengine-backend/pkg/money"
)

// Discount computes the discount amount the coupon grants over the eligible
// subtotal. Percentage discounts round to two decimals half-up; fixed
// discounts never exceed the eligible subtotal.
func Discount(coupon *models.Coupon, eligibleSubtotal decimal.Decimal) decimal.Decimal {
	if eligibleSubtotal.Sign() <= 0 {
		return money.Zero
	}

	switch coupon.Category {
	case enums.CouponCategoryPercentage:
		return money.Percent(eligibleSubtotal, coupon.DiscountValue)
	case enums.CouponCategoryFixed:
		return money.Min(money.Round(coupon.DiscountValue), money.Round(eligibleSubtotal))
	default:
		return money.Zero
	}
}
