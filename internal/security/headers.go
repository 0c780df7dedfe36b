// Package security holds HTTP hardening middleware for the JSON API.
package security

import (
	"net/http"
	"strconv"
)

const defaultHSTSMaxAge = 31536000

// HeaderOptions configures Headers.
type HeaderOptions struct {
	// HSTS adds Strict-Transport-Security on TLS requests.
	HSTS              bool
	HSTSMaxAge        int
	IncludeSubdomains bool
}

// Headers attaches response headers suited to a JSON-only API.
func Headers(opts HeaderOptions) func(http.Handler) http.Handler {
	maxAge := opts.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(maxAge)
	if opts.IncludeSubdomains {
		hsts += "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Cache-Control", "no-store")
			if opts.HSTS && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
