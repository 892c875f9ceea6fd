package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/obs"
)

// Config is the runtime configuration of the quote service and CLI, read from the environment.
type Config struct {
	AppEnv string
	Port   string

	Checkout checkout.Options

	RedisURL      string
	RefdataTTL    time.Duration
	BreakerMinReq int
	BreakerRatio  float64
	BreakerOpen   time.Duration
	CORSOrigins   []string
	SecHeaders    bool
	SecHSTS       bool
	QuoteMaxBody  int64
	QuoteRateMax  int
	QuoteRateSpan time.Duration

	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsEnabled   bool
	MetricsBuckets   []float64
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	TracingSampling  float64
}

// Load reads configuration from environment variables and an optional .env file.
// Every setting has a default; nothing is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	def := checkout.DefaultOptions()
	cfg := &Config{
		AppEnv: valueOrDefault(k.String("APP_ENV"), "development"),
		Port:   valueOrDefault(k.String("PORT"), "8080"),
		Checkout: checkout.Options{
			PricesFile:     valueOrDefault(k.String("CHECKOUT_PRICES_FILE"), def.PricesFile),
			PricesKey:      valueOrDefault(k.String("CHECKOUT_PRICES_KEY"), def.PricesKey),
			DiscountsFile:  valueOrDefault(k.String("CHECKOUT_DISCOUNTS_FILE"), def.DiscountsFile),
			DiscountsKey:   valueOrDefault(k.String("CHECKOUT_DISCOUNTS_KEY"), def.DiscountsKey),
			SortKey:        valueOrDefault(k.String("CHECKOUT_SORT_KEY"), def.SortKey),
			CurrencySymbol: valueOrDefault(k.String("CHECKOUT_CURRENCY_SYMBOL"), def.CurrencySymbol),
		},
		RedisURL:      strings.TrimSpace(k.String("REDIS_URL")),
		RefdataTTL:    parseDuration(k.String("REFDATA_CACHE_TTL"), "10m"),
		BreakerMinReq: parseInt(k.String("REFDATA_BREAKER_MIN_REQUESTS"), 5),
		BreakerRatio:  parseFloat(k.String("REFDATA_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpen:   parseDuration(k.String("REFDATA_BREAKER_OPEN_FOR"), "30s"),
		CORSOrigins:   splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		SecHeaders:    parseBool(k.String("SECURE_HEADERS_ENABLE"), true),
		SecHSTS:       parseBool(k.String("SECURE_HSTS_ENABLE"), false),
		QuoteMaxBody:  int64(parseInt(k.String("QUOTE_MAX_BODY_BYTES"), 64<<10)),
		QuoteRateMax:  parseInt(k.String("QUOTE_RATE_LIMIT"), 60),
		QuoteRateSpan: parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "checkout"),
		MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBuckets:   obs.ParseBucketsCSV(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}
	return cfg, nil
}

// HTTPAddr is the listen address derived from PORT.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests runs Load with env applied on top of the process environment and restores it afterwards.
// An empty value unsets the variable for the duration of the load.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]*string) error {
	var errs []string
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
