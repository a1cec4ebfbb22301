package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
)

// ItemMatchesScope reports whether a cart item falls inside the coupon's scope.
func ItemMatchesScope(coupon *models.Coupon, item *models.CartItem) bool {
	switch coupon.Scope {
	case enums.CouponScopeGlobal:
		return true
	case enums.CouponScopeCompany:
		return coupon.TargetID != nil && item.CompanyID == *coupon.TargetID
	case enums.CouponScopeCategory:
		return coupon.TargetID != nil && item.CategoryID == *coupon.TargetID
	case enums.CouponScopeProduct:
		return coupon.TargetID != nil && item.ProductID == *coupon.TargetID
	default:
		return false
	}
}

// EligibleSubtotal sums the line subtotals of items the coupon's scope covers.
func EligibleSubtotal(coupon *models.Coupon, items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		if ItemMatchesScope(coupon, &items[i]) {
			total = total.Add(items[i].LineSubtotal())
		}
	}
	return total
}
