package health

import (
	"context"

	"github.com/felixgeelhaar/prioritizer/internal/provider"
)

// ProviderChecker checks the health of the upstream AI provider.
type ProviderChecker struct {
	client provider.Client
}

// NewProviderChecker creates a new provider health checker.
func NewProviderChecker(client provider.Client) *ProviderChecker {
	return &ProviderChecker{client: client}
}

// Name returns the name of this health check.
func (c *ProviderChecker) Name() string {
	return "ai-provider"
}

// Check verifies the provider responds to a health request.
// The provider being down degrades the service rather than killing it:
// save/load/update still work without the upstream.
func (c *ProviderChecker) Check(ctx context.Context) *Result {
	if c.client == nil {
		return Unhealthy("no AI provider configured").
			WithDetail("suggestion", "Set GROQ_API_KEY and restart")
	}

	if err := c.client.Health(ctx); err != nil {
		return Degraded("AI provider unreachable, prioritize requests will fail").
			WithDetail("provider", c.client.Name()).
			WithDetail("error", err.Error())
	}

	return Healthy("AI provider reachable").
		WithDetail("provider", c.client.Name())
}
