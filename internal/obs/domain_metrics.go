package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutRunsTotal counts engine runs by outcome.
	CheckoutRunsTotal *prometheus.CounterVec
	// CheckoutRunDuration records engine run latency in milliseconds.
	CheckoutRunDuration prometheus.Histogram
	// DiscountsAppliedTotal counts savings lines produced, by discount type.
	DiscountsAppliedTotal *prometheus.CounterVec
	// DiscountIssuesTotal counts discount rules reported and ignored, by reason.
	DiscountIssuesTotal *prometheus.CounterVec
	// ReferenceRecordsSkippedTotal counts reference records dropped during loading.
	ReferenceRecordsSkippedTotal *prometheus.CounterVec
	// ReferenceCacheTotal counts snapshot cache lookups by result.
	ReferenceCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers checkout Prometheus collectors.
// Observe helpers are no-ops until this has run.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutRunsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_runs_total",
			Help:      "Count of cart evaluations by outcome.",
		}, []string{"result"}))
		CheckoutRunDuration = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_run_duration_ms",
			Help:      "Latency of cart evaluations in milliseconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}))
		DiscountsAppliedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_discounts_applied_total",
			Help:      "Count of discount rules applied to carts.",
		}, []string{"type"}))
		DiscountIssuesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_discount_issues_total",
			Help:      "Count of discount rules ignored because they could not be evaluated.",
		}, []string{"reason"}))
		ReferenceRecordsSkippedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_records_skipped_total",
			Help:      "Count of reference records skipped during loading.",
		}, []string{"dataset"}))
		ReferenceCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_cache_lookups_total",
			Help:      "Count of reference snapshot cache lookups by result.",
		}, []string{"result"}))
	})
}

// ObserveCheckoutRun records the outcome and latency of one engine run.
func ObserveCheckoutRun(result string, d time.Duration) {
	if CheckoutRunsTotal != nil {
		CheckoutRunsTotal.WithLabelValues(result).Inc()
	}
	if CheckoutRunDuration != nil {
		CheckoutRunDuration.Observe(DurationMillis(d))
	}
}

// ObserveDiscountApplied counts one applied savings line.
func ObserveDiscountApplied(discountType string) {
	if DiscountsAppliedTotal != nil {
		DiscountsAppliedTotal.WithLabelValues(discountType).Inc()
	}
}

// ObserveDiscountIssue counts one ignored discount rule.
func ObserveDiscountIssue(reason string) {
	if DiscountIssuesTotal != nil {
		DiscountIssuesTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveSkippedRecord counts one reference record dropped while loading dataset.
func ObserveSkippedRecord(dataset string) {
	if ReferenceRecordsSkippedTotal != nil {
		ReferenceRecordsSkippedTotal.WithLabelValues(dataset).Inc()
	}
}

// ObserveDatasetCache counts one snapshot cache lookup.
func ObserveDatasetCache(result string) {
	if ReferenceCacheTotal != nil {
		ReferenceCacheTotal.WithLabelValues(result).Inc()
	}
}
