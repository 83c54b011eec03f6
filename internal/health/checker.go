// Package health provides health check functionality for monitoring
// the service's dependencies: the upstream AI provider and the session
// store.
//
// It follows the standard health check pattern with:
//   - Checker interface for pluggable health checks
//   - Result type with status, message, and details
//   - Status enum (Healthy, Degraded, Unhealthy)
package health

import (
	"context"
	"time"
)

// Checker defines the interface for health checks.
// Each checker should verify a specific system dependency.
type Checker interface {
	// Name returns the unique name of this health check.
	// Should be lowercase with hyphens (e.g., "ai-provider").
	Name() string

	// Check performs the health check and returns the result.
	// It should respect the context deadline and return quickly.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded indicates the component is partially working.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy indicates the component is not working.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	// Status is the health status (healthy, degraded, unhealthy).
	Status Status `json:"status"`

	// Message is a human-readable description of the status.
	Message string `json:"message"`

	// Details contains additional structured information about the check.
	Details map[string]interface{} `json:"details,omitempty"`

	// Latency is how long the health check took to complete.
	Latency time.Duration `json:"latency,omitempty"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
