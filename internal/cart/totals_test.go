package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotalsScopedPercentageDiscount(t *testing.T) {
	t.Parallel()

	companyA := uuid.New()
	items := []models.CartItem{
		{ProductID: uuid.New(), CompanyID: companyA, CategoryID: uuid.New(), Quantity: 4, UnitPrice: dec("20.00"), ShippingCost: dec("2.50")},
		{ProductID: uuid.New(), CompanyID: uuid.New(), CategoryID: uuid.New(), Quantity: 1, UnitPrice: dec("20.00")},
	}
	applied := &models.Coupon{
		Category:      enums.CouponCategoryPercentage,
		Scope:         enums.CouponScopeCompany,
		TargetID:      &companyA,
		DiscountValue: dec("10"),
	}

	got := ComputeTotals(items, applied)

	if !got.Subtotal.Equal(dec("100.00")) {
		t.Fatalf("subtotal: expected 100.00, got %s", got.Subtotal)
	}
	if !got.Shipping.Equal(dec("10.00")) {
		t.Fatalf("shipping: expected 10.00, got %s", got.Shipping)
	}
	if !got.Discount.Equal(dec("8.00")) {
		t.Fatalf("discount: expected 8.00 (10%% of eligible 80), got %s", got.Discount)
	}
	if !got.Total.Equal(dec("102.00")) {
		t.Fatalf("total: expected 102.00, got %s", got.Total)
	}
}

func TestComputeTotalsShippingPerUnit(t *testing.T) {
	t.Parallel()

	extra := dec("1.00")
	items := []models.CartItem{
		// base 5.00 for the first unit, 1.00 per extra unit
		{Quantity: 3, UnitPrice: dec("10.00"), ShippingCost: dec("5.00"), AdditionalShipping: &extra},
		// missing additional rate falls back to base
		{Quantity: 2, UnitPrice: dec("10.00"), ShippingCost: dec("4.00")},
	}

	got := ComputeTotals(items, nil)

	if !got.Shipping.Equal(dec("15.00")) {
		t.Fatalf("shipping: expected 15.00 (5+2x1 and 4+4), got %s", got.Shipping)
	}
	if !got.Total.Equal(dec("65.00")) {
		t.Fatalf("total: expected 65.00, got %s", got.Total)
	}
}

func TestComputeTotalsNeverNegative(t *testing.T) {
	t.Parallel()

	items := []models.CartItem{
		{Quantity: 1, UnitPrice: dec("30.00")},
	}
	applied := &models.Coupon{
		Category:      enums.CouponCategoryFixed,
		Scope:         enums.CouponScopeGlobal,
		DiscountValue: dec("50.00"),
	}

	got := ComputeTotals(items, applied)

	if !got.Discount.Equal(dec("30.00")) {
		t.Fatalf("discount: expected cap at 30.00, got %s", got.Discount)
	}
	if !got.Total.Equal(dec("0.00")) {
		t.Fatalf("total: expected 0.00, got %s", got.Total)
	}
	if got.Total.IsNegative() {
		t.Fatal("total must never be negative")
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	t.Parallel()

	items := []models.CartItem{
		{Quantity: 3, UnitPrice: dec("33.33"), ShippingCost: dec("1.25")},
	}
	applied := &models.Coupon{
		Category:      enums.CouponCategoryPercentage,
		Scope:         enums.CouponScopeGlobal,
		DiscountValue: dec("15"),
	}

	first := ComputeTotals(items, applied)
	second := ComputeTotals(items, applied)

	if !first.Subtotal.Equal(second.Subtotal) || !first.Shipping.Equal(second.Shipping) ||
		!first.Discount.Equal(second.Discount) || !first.Total.Equal(second.Total) {
		t.Fatalf("recompute changed totals: %+v vs %+v", first, second)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	got := ComputeTotals(nil, nil)
	if !got.Subtotal.IsZero() || !got.Shipping.IsZero() || !got.Discount.IsZero() || !got.Total.IsZero() {
		t.Fatalf("empty cart should have zero totals: %+v", got)
	}
}
