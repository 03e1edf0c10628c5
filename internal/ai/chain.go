package ai

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/logger"
	"docqa-platform/models"
)

// Chain runs generation against the primary provider with a bounded timeout
// and at most one retry, then falls over to the fallback provider when one is
// configured. Exhaustion surfaces ErrGenerationUnavailable; timeouts are
// treated identically to provider failure.
type Chain struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
}

func NewChain(primary, fallback Provider, timeout time.Duration) *Chain {
	return &Chain{primary: primary, fallback: fallback, timeout: timeout}
}

func (c *Chain) Name() string { return "chain" }

// Generate returns the answer text and the name of the provider that
// produced it.
func (c *Chain) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	text, _, err := c.GenerateWith(ctx, req)
	return text, err
}

func (c *Chain) GenerateWith(ctx context.Context, req GenerateRequest) (string, string, error) {
	var lastErr error

	// Primary: one attempt plus one bounded retry.
	for attempt := 0; attempt < 2; attempt++ {
		text, err := c.attempt(ctx, c.primary, req)
		if err == nil {
			return text, c.primary.Name(), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logger.Warn("Primary generation attempt failed", "provider", c.primary.Name(), "attempt", attempt+1, "error", err.Error())
	}

	if c.fallback != nil && ctx.Err() == nil {
		text, err := c.attempt(ctx, c.fallback, req)
		if err == nil {
			return text, c.fallback.Name(), nil
		}
		lastErr = err
		logger.Error("Fallback generation failed", "provider", c.fallback.Name(), "error", err.Error())
	}

	return "", "", fmt.Errorf("%w: %v", models.ErrGenerationUnavailable, lastErr)
}

func (c *Chain) attempt(ctx context.Context, p Provider, req GenerateRequest) (string, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Generate(attemptCtx, req)
}

var _ Provider = (*Chain)(nil)
