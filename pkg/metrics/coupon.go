package metrics

import "github.com/prometheus/client_golang/prometheus"

// CouponMetrics tracks coupon validation and redemption outcomes.
type CouponMetrics struct {
	redemptions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// NewCouponMetrics registers the coupon metrics on the provided registerer.
func NewCouponMetrics(reg prometheus.Registerer) *CouponMetrics {
	if reg == nil {
		return &CouponMetrics{}
	}
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cartengine_coupon_redemptions",
		Help: "Coupon redemptions by discount category.",
	}, []string{"category"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cartengine_coupon_rejections",
		Help: "Coupon validation failures by error code.",
	}, []string{"code"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cartengine_cart_version_conflicts",
		Help: "Optimistic lock conflicts on cart saves.",
	})
	reg.MustRegister(redemptions, rejections, conflicts)
	return &CouponMetrics{
		redemptions: redemptions,
		rejections:  rejections,
		conflicts:   conflicts,
	}
}

// IncRedemption records a successful redemption for the discount category.
func (c *CouponMetrics) IncRedemption(category string) {
	if c == nil || c.redemptions == nil {
		return
	}
	c.redemptions.WithLabelValues(normalizeLabel(category)).Inc()
}

// IncRejection records a failed validation with its error code.
func (c *CouponMetrics) IncRejection(code string) {
	if c == nil || c.rejections == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncVersionConflict records an optimistic lock conflict on a cart save.
func (c *CouponMetrics) IncVersionConflict() {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.Inc()
}
