package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HTTPObs feeds HTTPMetrics for every request.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

// Middleware must be installed on the router so the route pattern is known once
// the request returns.
func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	if o.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		o.Metrics.InFlight.Inc()
		defer o.Metrics.InFlight.Dec()

		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routeOf(r)
		if route == "" {
			route = "unknown"
		}
		o.Metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(statusOf(ww))).Inc()
		o.Metrics.Latency.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
		o.Metrics.ResponseSize.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
	})
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww middleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

// routeOf returns chi's matched pattern. It is only complete after routing.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
