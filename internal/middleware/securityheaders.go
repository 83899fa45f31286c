package middleware

import "net/http"

// HeaderPolicy selects the optional response headers SecurityHeaders sets.
type HeaderPolicy struct {
	// HSTS pins browsers to TLS. Leave it off when the API is served over
	// plain HTTP, or localhost gets pinned for two years.
	HSTS bool
}

const hstsValue = "max-age=63072000; includeSubDomains"

// The API only answers JSON, so nothing it returns should render, frame,
// or be cached by a shared proxy.
var apiHeaders = []struct{ name, value string }{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets the API's security headers before the handler runs,
// so a handler may still override Cache-Control.
func SecurityHeaders(p HeaderPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range apiHeaders {
				h.Set(kv.name, kv.value)
			}
			if p.HSTS {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			next.ServeHTTP(w, r)
		})
	}
}
