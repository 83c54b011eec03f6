package health

import (
	"context"
	"sync/atomic"
	"time"
)

// ProbeManager extends Manager with Kubernetes-style probe support.
// It tracks initialization and shutdown state for liveness, readiness,
// and startup probes.
type ProbeManager struct {
	*Manager

	startTime   time.Time
	initialized atomic.Bool
	inShutdown  atomic.Bool
	version     string
}

// NewProbeManager creates a new health check manager with probe support.
func NewProbeManager(version string) *ProbeManager {
	return &ProbeManager{
		Manager:   NewManager(),
		startTime: time.Now(),
		version:   version,
	}
}

// MarkInitialized marks the application as fully initialized, allowing
// the startup probe to pass.
func (pm *ProbeManager) MarkInitialized() {
	pm.initialized.Store(true)
}

// MarkShutdown marks the application as shutting down, causing
// readiness probes to fail.
func (pm *ProbeManager) MarkShutdown() {
	pm.inShutdown.Store(true)
}

// IsInitialized returns whether the application is fully initialized.
func (pm *ProbeManager) IsInitialized() bool {
	return pm.initialized.Load()
}

// IsShuttingDown returns whether the application is shutting down.
func (pm *ProbeManager) IsShuttingDown() bool {
	return pm.inShutdown.Load()
}

// Uptime returns how long the application has been running.
func (pm *ProbeManager) Uptime() time.Duration {
	return time.Since(pm.startTime)
}

// ProbeResult represents a probe check result.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// CheckLiveness performs a liveness probe check. It does NOT run
// dependency checks; it only verifies the process is responsive.
// Returns degraded (not unhealthy) during shutdown.
func (pm *ProbeManager) CheckLiveness(ctx context.Context) *ProbeResult {
	status := StatusHealthy
	if pm.IsShuttingDown() {
		status = StatusDegraded
	}

	return &ProbeResult{
		Status:    status,
		Version:   pm.version,
		Uptime:    pm.Uptime().Round(time.Second).String(),
		Checks:    make(map[string]*Result),
		Timestamp: time.Now(),
	}
}

// CheckReadiness performs a readiness probe check. It runs all
// registered dependency checks unless the server is shutting down, in
// which case it is immediately not ready.
func (pm *ProbeManager) CheckReadiness(ctx context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return &ProbeResult{
			Status:    StatusUnhealthy,
			Version:   pm.version,
			Uptime:    pm.Uptime().Round(time.Second).String(),
			Checks:    make(map[string]*Result),
			Timestamp: time.Now(),
		}
	}

	checks := pm.Manager.Check(ctx)
	overallStatus := pm.Manager.OverallStatus(checks)

	return &ProbeResult{
		Status:    overallStatus,
		Version:   pm.version,
		Uptime:    pm.Uptime().Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now(),
	}
}

// CheckStartup performs a startup probe check. It only verifies
// initialization is complete; no dependency checks run.
func (pm *ProbeManager) CheckStartup(ctx context.Context) *ProbeResult {
	status := StatusUnhealthy
	if pm.IsInitialized() {
		status = StatusHealthy
	}

	return &ProbeResult{
		Status:    status,
		Version:   pm.version,
		Uptime:    pm.Uptime().Round(time.Second).String(),
		Checks:    make(map[string]*Result),
		Timestamp: time.Now(),
	}
}
