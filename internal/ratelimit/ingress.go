package ratelimit

import (
	"context"

	"github.com/oriys/conduit/internal/runtime"
)

// Target wraps a runtime.Target so that network-ingress producers are
// throttled before a message ever reaches the buffer: Accept first asks
// the Redis token bucket for key/tier, and returns Declined without
// touching the downstream at all when the bucket is empty.
type Target[T any] struct {
	downstream runtime.Target[T]
	limiter    *Limiter
	key        string
	tier       string
}

// NewTarget builds a rate-limited front door for downstream.
func NewTarget[T any](downstream runtime.Target[T], limiter *Limiter, key, tier string) *Target[T] {
	return &Target[T]{downstream: downstream, limiter: limiter, key: key, tier: tier}
}

// Accept checks the token bucket before forwarding to downstream. A
// Redis error fails open — it forwards to downstream rather than
// blocking ingress on a rate limiter outage.
func (t *Target[T]) Accept(ctx context.Context, m runtime.Message[T]) runtime.Status {
	result, err := t.limiter.Allow(ctx, t.key, t.tier)
	if err == nil && !result.Allowed {
		return runtime.Declined
	}
	return t.downstream.Accept(ctx, m)
}
