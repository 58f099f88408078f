package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the request timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (15s)
//	  ↓
//	Donation initiation / notification processing (10s)
//	  ↓
//	Secret manager lookup (5s)
//	  ↓
//	Database query (2s/5s, set in the postgres adapter)
//
// Each layer completes before its parent times out.
type TimeoutConfig struct {
	HTTPHandler time.Duration // Overall request timeout
	Initiation  time.Duration // Validate, persist and sign one donation
	Webhook     time.Duration // Ledger transaction for one notification
	SecretFetch time.Duration // Single secret manager read
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 15 * time.Second,
		Initiation:  10 * time.Second,
		Webhook:     10 * time.Second,
		SecretFetch: 5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 2 * time.Second,
		Initiation:  time.Second,
		Webhook:     time.Second,
		SecretFetch: 500 * time.Millisecond,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// InitiationContext bounds a single donation initiation
func (tc *TimeoutConfig) InitiationContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Initiation)
}

// WebhookContext bounds processing of one gateway notification
func (tc *TimeoutConfig) WebhookContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Webhook)
}

// SecretContext bounds one secret manager lookup
func (tc *TimeoutConfig) SecretContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.SecretFetch)
}
