package middleware

import (
	"net/http"
	"net/url"
)

// SecurityHeaders adds security-related HTTP headers to responses
type SecurityHeaders struct {
	isDevelopment bool
	// gatewayOrigin is the only target the checkout form may be posted to
	gatewayOrigin string
}

// NewSecurityHeaders creates a new security headers middleware. gatewayURL is
// the hosted payment page URL; its origin is allowed as a form-action target.
func NewSecurityHeaders(isDevelopment bool, gatewayURL string) *SecurityHeaders {
	return &SecurityHeaders{
		isDevelopment: isDevelopment,
		gatewayOrigin: originOf(gatewayURL),
	}
}

// Middleware wraps an HTTP handler with security headers
func (sh *SecurityHeaders) Middleware(next http.Handler) http.Handler {
	csp := sh.contentSecurityPolicy()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// X-Frame-Options: Prevents clickjacking attacks
		w.Header().Set("X-Frame-Options", "DENY")

		// X-Content-Type-Options: Prevents MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Strict-Transport-Security (HSTS): Only set in production to avoid
		// issues with local development
		if !sh.isDevelopment {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}

		w.Header().Set("Content-Security-Policy", csp)

		// no-referrer keeps external refs in status URLs away from third parties
		w.Header().Set("Referrer-Policy", "no-referrer")

		w.Header().Set("Permissions-Policy",
			"geolocation=(), "+
				"microphone=(), "+
				"camera=(), "+
				"payment=(), "+
				"usb=()")

		w.Header().Set("X-Permitted-Cross-Domain-Policies", "none")

		next.ServeHTTP(w, r)
	})
}

func (sh *SecurityHeaders) contentSecurityPolicy() string {
	// The checkout form is rendered by the frontend and posted to the gateway
	formAction := "'none'"
	if sh.gatewayOrigin != "" {
		formAction = sh.gatewayOrigin
	}

	if sh.isDevelopment {
		return "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self' " + formAction
	}

	return "default-src 'none'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'none'; " +
		"form-action " + formAction
}

// originOf reduces a URL to scheme://host, or "" when it is not absolute
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
