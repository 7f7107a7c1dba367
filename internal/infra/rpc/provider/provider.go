// Package provider implements upstream endpoints for chain sources.
//
// This package contains:
//   - Provider interface: core abstraction for an upstream endpoint
//   - HTTPProvider: JSON-RPC and REST over HTTP
//   - ProviderMonitor: latency and throttle tracking
package provider

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for any upstream endpoint.
type Provider interface {
	// GetName returns provider identifier (e.g., "arweave.net", "alchemy")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Call makes a single JSON-RPC request
	Call(ctx context.Context, method string, params []any) (any, error)

	// Get performs a REST GET against path and returns the body of a 200 response
	Get(ctx context.Context, path string) ([]byte, error)

	// Close cleans up resources
	Close() error
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Status        string        `json:"status"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
}

// StatusError is returned when an endpoint answers with an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}
