package enums

import "fmt"

// CouponState tracks whether a coupon may be applied at all.
type CouponState string

const (
	CouponStateActive   CouponState = "active"
	CouponStateInactive CouponState = "inactive"
	CouponStateExpired  CouponState = "expired"
)

var validCouponStates = []CouponState{
	CouponStateActive,
	CouponStateInactive,
	CouponStateExpired,
}

// String implements fmt.Stringer.
func (c CouponState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponState.
func (c CouponState) IsValid() bool {
	for _, candidate := range validCouponStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponState converts raw input into a CouponState.
func ParseCouponState(value string) (CouponState, error) {
	for _, candidate := range validCouponStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon state %q", value)
}
