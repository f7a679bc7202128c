package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

const namespace = "bookstore"

// FulfillmentMetrics tracks fulfillment status transitions and the current
// distribution of rows per status.
type FulfillmentMetrics struct {
	transitions *prometheus.CounterVec
	byStatus    *prometheus.GaugeVec
}

// NewFulfillmentMetrics registers the fulfillment collectors on reg. A nil
// registerer yields a no-op instance.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fulfillment_transitions_total",
		Help:      "Fulfillment rows moved into a status.",
	}, []string{"status"})
	byStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fulfillments",
		Help:      "Fulfillment rows per status as of the last stats refresh.",
	}, []string{"status"})
	reg.MustRegister(transitions, byStatus)
	return &FulfillmentMetrics{transitions: transitions, byStatus: byStatus}
}

// ObserveTransition counts n rows moved into status.
func (m *FulfillmentMetrics) ObserveTransition(status enums.FulfillmentStatus, n int) {
	if m == nil || m.transitions == nil || n <= 0 {
		return
	}
	m.transitions.WithLabelValues(status.String()).Add(float64(n))
}

// SetStatusCounts overwrites the per-status gauges.
func (m *FulfillmentMetrics) SetStatusCounts(counts map[enums.FulfillmentStatus]int64) {
	if m == nil || m.byStatus == nil {
		return
	}
	for _, status := range enums.FulfillmentStatuses() {
		m.byStatus.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
}
