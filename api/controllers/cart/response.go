package cart

import (
	cartdto "github.com/datasaz/cartengine-backend/api/controllers/cart/dto"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/money"
)

func newCartView(record *models.Cart) cartdto.CartView {
	items := make([]cartdto.CartItemView, 0, len(record.Items))
	for i := range record.Items {
		item := &record.Items[i]
		items = append(items, cartdto.CartItemView{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.StringFixed(money.Scale),
			LineSubtotal: item.LineSubtotal().StringFixed(money.Scale),
			LineShipping: item.LineShipping().StringFixed(money.Scale),
		})
	}

	view := cartdto.CartView{
		ID:             record.ID,
		SessionID:      record.SessionID,
		UserID:         record.UserID,
		Subtotal:       record.Subtotal.StringFixed(money.Scale),
		ShippingCost:   record.ShippingCost.StringFixed(money.Scale),
		DiscountAmount: record.DiscountAmount.StringFixed(money.Scale),
		TotalPrice:     record.TotalPrice.StringFixed(money.Scale),
		Items:          items,
		LastModified:   record.LastModified,
		CreatedAt:      record.CreatedAt,
	}

	if record.Coupon != nil {
		view.Coupon = &cartdto.CouponView{
			Code:          record.Coupon.Code,
			Category:      record.Coupon.Category,
			Scope:         record.Coupon.Scope,
			DiscountValue: record.Coupon.DiscountValue.StringFixed(money.Scale),
		}
	}

	return view
}
