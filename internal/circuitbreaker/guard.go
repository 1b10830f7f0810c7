package circuitbreaker

import (
	"context"

	"github.com/oriys/conduit/internal/runtime"
)

// GuardedTarget wraps a runtime.Target so that a persistently failing
// downstream trips the breaker to Open and short-circuits further
// offers to Declined, rather than letting a TransformBuffer keep
// hammering a struggling consumer. An Accepted downstream response
// counts as a breaker success; any other Status (Declined, Postponed,
// Missed) counts as a breaker failure.
type GuardedTarget[T any] struct {
	downstream runtime.Target[T]
	breaker    *Breaker
}

// NewGuardedTarget wraps downstream with breaker.
func NewGuardedTarget[T any](downstream runtime.Target[T], breaker *Breaker) *GuardedTarget[T] {
	return &GuardedTarget[T]{downstream: downstream, breaker: breaker}
}

// Accept rejects outright when the breaker is open; otherwise it
// forwards to the downstream target and records the outcome.
func (g *GuardedTarget[T]) Accept(ctx context.Context, m runtime.Message[T]) runtime.Status {
	if !g.breaker.Allow() {
		return runtime.Declined
	}
	status := g.downstream.Accept(ctx, m)
	if status == runtime.Accepted {
		g.breaker.RecordSuccess()
	} else {
		g.breaker.RecordFailure()
	}
	return status
}
