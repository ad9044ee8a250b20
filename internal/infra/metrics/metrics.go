package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersPlacedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Total number of committed orders",
		},
	)

	orderRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_revenue_total",
			Help: "Sum of committed order totals in minor currency units",
		},
	)

	orderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_placement_failures_total",
			Help: "Order placements that did not commit, by error kind",
		},
		[]string{"kind"},
	)

	txRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unit_of_work_retries_total",
			Help: "Unit-of-work re-attempts after a commit conflict",
		},
		[]string{"operation"},
	)

	reviewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reviews_saved_total",
			Help: "Total number of saved reviews (insert or overwrite)",
		},
	)

	topSellingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "top_selling_cache_requests_total",
			Help: "Top-selling cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ordersPlacedTotal)
	prometheus.MustRegister(orderRevenueTotal)
	prometheus.MustRegister(orderFailuresTotal)
	prometheus.MustRegister(txRetriesTotal)
	prometheus.MustRegister(reviewsTotal)
	prometheus.MustRegister(topSellingCacheTotal)
}

func RecordOrderPlaced(total int64) {
	ordersPlacedTotal.Inc()
	orderRevenueTotal.Add(float64(total))
}

func RecordOrderFailed(kind string) {
	orderFailuresTotal.WithLabelValues(kind).Inc()
}

func RecordTxRetry(operation string) {
	txRetriesTotal.WithLabelValues(operation).Inc()
}

func RecordReviewSaved() {
	reviewsTotal.Inc()
}

func RecordTopSellingCache(hit bool) {
	if hit {
		topSellingCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	topSellingCacheTotal.WithLabelValues("miss").Inc()
}
