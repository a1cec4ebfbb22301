package clock

import "time"

// Clock supplies the current time. Coupon validity windows are checked against
// an injected Clock so expiry behavior is deterministic under test.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used in production.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At
}
