package security

import (
	"net/http"
	"strconv"
)

const defaultHSTSMaxAge = 31536000

// Headers hardens API responses. Quotes are priced from live reference data, so
// responses are marked uncacheable when NoStore is set.
type Headers struct {
	Enable                bool
	NoStore               bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// Middleware sets the configured headers before calling next.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if h.NoStore {
			headers.Set("Cache-Control", "no-store")
		}
		if hsts := h.hsts(r); hsts != "" {
			headers.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hsts(r *http.Request) string {
	if !h.EnableHSTS || r.TLS == nil {
		return ""
	}
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}
