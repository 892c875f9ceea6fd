package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned by Do when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker position.
type State int

const (
	// Closed passes calls through and counts failures.
	Closed State = iota
	// Open refuses calls until the cool-off elapses.
	Open
	// HalfOpen passes calls through until the next outcome decides the state.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Metrics exposes breaker state to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	State       *prometheus.GaugeVec
	Transitions *prometheus.CounterVec
}

// NewMetrics registers breaker collectors under namespace. Collectors already
// registered with reg are reused.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions",
		}, []string{"target", "from", "to"}),
	}
	m.State = reuse(reg, m.State)
	m.Transitions = reuse(reg, m.Transitions)
	return m
}

func reuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Breaker opens after failures reach Ratio of at least MinRequests observed calls
// and stays open for OpenFor. It is safe for concurrent use.
type Breaker struct {
	Target      string
	MinRequests int
	Ratio       float64
	OpenFor     time.Duration
	Logger      zerolog.Logger
	Metrics     *Metrics
	Now         func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// NewBreaker applies defaults for zero thresholds.
func NewBreaker(target string, minRequests int, ratio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		Target:      strings.TrimSpace(target),
		MinRequests: minRequests,
		Ratio:       ratio,
		OpenFor:     openFor,
		Logger:      zerolog.Nop(),
	}
}

// State returns the current position.
func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. An open breaker moves to half-open
// once OpenFor has elapsed. A nil breaker always allows.
func (b *Breaker) Allow(ctx context.Context) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.OpenFor {
		return false
	}
	b.moveLocked(ctx, HalfOpen)
	return true
}

// Report records a call outcome.
func (b *Breaker) Report(ctx context.Context, success bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.MinRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.Ratio {
		b.moveLocked(ctx, Open)
		return
	}
	if total > b.MinRequests*2 {
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

// Do runs fn when the breaker allows it and reports the outcome.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	b.Report(ctx, err == nil)
	return err
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.successes = 0, 0
	if next == Open {
		b.openedAt = b.now()
	}
	target := b.target()
	if b.Metrics != nil {
		b.Metrics.State.WithLabelValues(target).Set(float64(next))
		b.Metrics.Transitions.WithLabelValues(target, prev.String(), next.String()).Inc()
	}
	evt := b.Logger.Info().Str("target", target).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) target() string {
	if b.Target == "" {
		return "default"
	}
	return b.Target
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
