package obs

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultLatencyBucketsMS = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
	responseSizeBuckets     = prometheus.ExponentialBuckets(128, 4, 6)
)

// HTTPMetrics holds the server-side HTTP collectors, labelled by chi route.
type HTTPMetrics struct {
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	ResponseSize *prometheus.HistogramVec
	InFlight     prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP collectors on reg, or the default registerer
// when reg is nil. Latency buckets are in milliseconds.
func NewHTTPMetrics(namespace string, latencyBuckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	buckets := slices.Clone(latencyBuckets)
	if len(buckets) == 0 {
		buckets = slices.Clone(defaultLatencyBucketsMS)
	}
	slices.Sort(buckets)

	return &HTTPMetrics{
		Requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"})),
		Latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		ResponseSize: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes.",
			Buckets:   responseSizeBuckets,
		}, []string{"route"})),
		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "HTTP requests currently being served.",
		})),
	}
}

// ParseBucketsCSV reads bucket boundaries such as "5,10,25". Entries that are not
// positive numbers are dropped.
func ParseBucketsCSV(csv string) []float64 {
	var out []float64
	for _, part := range strings.Split(csv, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// register adds c to reg. When an equal collector is already registered it is
// returned instead, so wiring twice against one registry is harmless.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		panic(fmt.Errorf("register collector: %w", err))
	}
	if existing, ok := are.ExistingCollector.(C); ok {
		return existing
	}
	return c
}
