package enums

import "fmt"

// CouponCategory determines how the discount amount is computed.
type CouponCategory string

const (
	CouponCategoryPercentage CouponCategory = "percentage"
	CouponCategoryFixed      CouponCategory = "fixed"
)

var validCouponCategories = []CouponCategory{
	CouponCategoryPercentage,
	CouponCategoryFixed,
}

// String implements fmt.Stringer.
func (c CouponCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponCategory.
func (c CouponCategory) IsValid() bool {
	for _, candidate := range validCouponCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponCategory converts raw input into a CouponCategory.
func ParseCouponCategory(value string) (CouponCategory, error) {
	for _, candidate := range validCouponCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon category %q", value)
}
