package health

import (
	"context"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/prioritizer/internal/store"
)

// StoreChecker checks that the session store's data directory exists
// and is writable.
type StoreChecker struct {
	store *store.Store
}

// NewStoreChecker creates a new store health checker.
func NewStoreChecker(s *store.Store) *StoreChecker {
	return &StoreChecker{store: s}
}

// Name returns the name of this health check.
func (c *StoreChecker) Name() string {
	return "session-store"
}

// Check verifies the data directory accepts writes.
func (c *StoreChecker) Check(ctx context.Context) *Result {
	dir := c.store.Dir()

	info, err := os.Stat(dir)
	if err != nil {
		return Unhealthy("data directory missing").
			WithDetail("dir", dir).
			WithDetail("error", err.Error())
	}
	if !info.IsDir() {
		return Unhealthy("data path is not a directory").
			WithDetail("dir", dir)
	}

	// Probe writability with a throwaway file.
	probe, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return Unhealthy("data directory not writable").
			WithDetail("dir", dir).
			WithDetail("error", err.Error())
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	return Healthy("session store writable").
		WithDetail("dir", dir).
		WithDetail("session_file", filepath.Base(c.store.Path()))
}
