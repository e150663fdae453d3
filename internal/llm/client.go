package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Client wraps a Provider with the retry policy and the fixed safety
// configuration. It holds no per-call state and is safe for concurrent use.
type Client struct {
	provider    Provider
	policy      RetryPolicy
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

func NewClient(provider Provider, policy RetryPolicy, temperature float32, maxTokens int, logger *zap.Logger) *Client {
	return &Client{
		provider:    provider,
		policy:      policy,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Model reports the provider's model identifier.
func (c *Client) Model() string {
	return c.provider.Model()
}

// Generate sends prompt, retrying every provider error until the attempt
// budget is spent. Exhaustion yields an error wrapping ErrModelUnavailable
// and the last provider error. Cancellation of ctx stops immediately and
// returns ctx's error.
func (c *Client) Generate(ctx context.Context, prompt string) (*Generation, error) {
	opts := GenerateOptions{
		Temperature:     c.temperature,
		MaxOutputTokens: c.maxTokens,
		Safety:          DefaultSafety,
	}

	attempts := c.policy.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		gen, err := c.attempt(ctx, prompt, opts)
		if err == nil {
			c.logger.Debug("Model call succeeded",
				zap.String("model", c.provider.Model()),
				zap.Int("attempt", attempt),
				zap.Int("tokens", gen.TokensUsed),
				zap.Duration("latency", time.Since(start)))
			return gen, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		c.logger.Warn("Model call failed",
			zap.Error(err),
			zap.String("model", c.provider.Model()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts))

		if attempt < attempts {
			if err := sleep(ctx, c.policy.Backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Error("Model retries exhausted",
		zap.Error(lastErr),
		zap.String("model", c.provider.Model()),
		zap.Int("attempts", attempts))
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrModelUnavailable, attempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	if c.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.AttemptTimeout)
		defer cancel()
	}
	gen, err := c.provider.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, errors.New("provider returned no generation")
	}
	return gen, nil
}
