package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics counts checkout lifecycle events.
type CheckoutMetrics struct {
	started   prometheus.Counter
	completed prometheus.Counter
	cancelled prometheus.Counter
	failed    prometheus.Counter
	items     *prometheus.CounterVec
	payments  *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	f := promauto.With(reg)
	return &CheckoutMetrics{
		started: f.NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_started_total",
			Help: "Checkout sessions started",
		}),
		completed: f.NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_completed_total",
			Help: "Checkout sessions that completed a sale",
		}),
		cancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_cancelled_total",
			Help: "Checkout sessions cancelled by the user",
		}),
		failed: f.NewCounter(prometheus.CounterOpts{
			Name: "checkout_failures_total",
			Help: "Times a checkout entered the error step",
		}),
		items: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_line_items_total",
			Help: "Sale line items attached, by result",
		}, []string{"result"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_payments_total",
			Help: "Payments handled at checkout, by result",
		}, []string{"result"}),
	}
}

func (m *CheckoutMetrics) Started()   { m.started.Inc() }
func (m *CheckoutMetrics) Completed() { m.completed.Inc() }
func (m *CheckoutMetrics) Cancelled() { m.cancelled.Inc() }
func (m *CheckoutMetrics) Failed()    { m.failed.Inc() }

// LineItems records one create-sale batch.
func (m *CheckoutMetrics) LineItems(ok, failed int) {
	m.items.WithLabelValues("ok").Add(float64(ok))
	m.items.WithLabelValues("failed").Add(float64(failed))
}

func (m *CheckoutMetrics) Payments(recorded, skipped, failed int) {
	m.payments.WithLabelValues("recorded").Add(float64(recorded))
	m.payments.WithLabelValues("skipped").Add(float64(skipped))
	m.payments.WithLabelValues("failed").Add(float64(failed))
}
