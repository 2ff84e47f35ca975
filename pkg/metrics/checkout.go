package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the checkout counters.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// CheckoutMetrics records the health of the cart to order pipeline.
type CheckoutMetrics struct {
	couponValidations *prometheus.CounterVec
	orderSubmissions  *prometheus.CounterVec
	submitDuration    prometheus.Histogram
	degradedLoads     *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	couponValidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validation attempts by outcome.",
	}, []string{"outcome"})
	orderSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_submit_duration_seconds",
		Help:    "Time spent persisting a submitted order.",
		Buckets: prometheus.DefBuckets,
	})
	degradedLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_degraded_loads_total",
		Help: "Cart and checkout loads that fell back to defaults.",
	}, []string{"reason"})
	reg.MustRegister(couponValidations, orderSubmissions, submitDuration, degradedLoads)
	return &CheckoutMetrics{
		couponValidations: couponValidations,
		orderSubmissions:  orderSubmissions,
		submitDuration:    submitDuration,
		degradedLoads:     degradedLoads,
	}
}

// IncCouponValidation counts a coupon validation with the given outcome.
func (m *CheckoutMetrics) IncCouponValidation(outcome string) {
	if m == nil || m.couponValidations == nil {
		return
	}
	m.couponValidations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOrderSubmission counts an order submission with the given outcome.
func (m *CheckoutMetrics) IncOrderSubmission(outcome string) {
	if m == nil || m.orderSubmissions == nil {
		return
	}
	m.orderSubmissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveSubmitDuration records how long the order insert took.
func (m *CheckoutMetrics) ObserveSubmitDuration(duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.Observe(duration.Seconds())
}

// IncDegradedLoad counts a load that returned defaults instead of failing.
func (m *CheckoutMetrics) IncDegradedLoad(reason string) {
	if m == nil || m.degradedLoads == nil {
		return
	}
	m.degradedLoads.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
