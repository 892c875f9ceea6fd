package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("checkout", []float64{1, 10}, registry)
	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/health/ready", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.Latency))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "unknown", "404")))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
	require.Equal(t, 2, testutil.CollectAndCount(metrics.ResponseSize))
}

func TestHTTPMetricsReuseRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("checkout", nil, registry)
	second := obs.NewHTTPMetrics("checkout", nil, registry)
	require.Same(t, first.Requests, second.Requests)
}

func TestRequestLoggerUsesChiRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Post("/api/v1/checkout/quote", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/quote", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "/api/v1/checkout/quote", entry["route"])
	require.Equal(t, float64(http.StatusCreated), entry["status"])
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{1, 2.5, 10}, obs.ParseBucketsCSV("1, 2.5,foo,-3,10"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "nonsense")
	logger.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
