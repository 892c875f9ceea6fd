package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-checkout/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness; the API flips it off when draining on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	// CheckDatasets verifies the reference datasets load without structural errors.
	CheckDatasets(ctx context.Context) error
	// PingRedis reports the snapshot cache status. Implementations without Redis return nil.
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	DatasetTimeout time.Duration
	RedisTimeout   time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.datasetTimeout())
	datasets := statusOf(h.Checker.CheckDatasets(ctx))
	cancel()
	redis := statusOf(h.Checker.PingRedis(r.Context(), h.redisTimeout()))

	status := http.StatusOK
	if datasets != "ok" || redis != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, map[string]string{
		"datasets": datasets,
		"redis":    redis,
	})
}

func statusOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}

func (h Handler) datasetTimeout() time.Duration {
	if h.DatasetTimeout <= 0 {
		return time.Second
	}
	return h.DatasetTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
