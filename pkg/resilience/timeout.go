package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy
//
// Timeout Hierarchy (from outermost to innermost):
//
//	HTTP Handler (60s)
//	  ↓
//	Settlement Service (50s)
//	  ↓
//	Gateway Verification (15s per provider call)
//	  ↓
//	Database Query (2s/5s - based on complexity)
//
// Each layer completes before its parent times out, preventing cascading
// timeout failures.
type TimeoutConfig struct {
	// Handler layer timeouts
	HTTPHandler time.Duration // Overall request timeout (default: 60s)

	// Service layer timeouts
	Settlement time.Duration // One settlement end to end (default: 50s)

	// External call timeouts (adapters)
	Gateway      time.Duration // Single gateway API call (default: 15s)
	Notification time.Duration // Webhook notification per attempt (default: 10s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  60 * time.Second,
		Settlement:   50 * time.Second,
		Gateway:      15 * time.Second,
		Notification: 10 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:  5 * time.Second,
		Settlement:   4 * time.Second,
		Gateway:      2 * time.Second,
		Notification: 1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// SettlementContext creates a context with timeout for one settlement
func (tc *TimeoutConfig) SettlementContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Settlement)
}

// GatewayContext creates a context for a single gateway API call
func (tc *TimeoutConfig) GatewayContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Gateway)
}

// NotificationContext creates a context for one notification attempt
func (tc *TimeoutConfig) NotificationContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Notification)
}
