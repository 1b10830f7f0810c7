package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/oriys/conduit/internal/runtime"
)

func TestGuardedTargetTripsOnRepeatedDeclines(t *testing.T) {
	ctx := context.Background()
	latch := runtime.NewWriteOnceBuffer[int]()
	runtime.Send(ctx, latch, 1) // latch is now full; every further accept declines

	breaker := New(Config{
		ErrorPct:       50,
		WindowDuration: time.Second,
		OpenDuration:   time.Hour,
		HalfOpenProbes: 1,
	})
	guard := NewGuardedTarget[int](latch, breaker)

	if st := runtime.Send(ctx, guard, 2); st != runtime.Declined {
		t.Fatalf("expected first decline to propagate, got %v", st)
	}
	if st := runtime.Send(ctx, guard, 3); st != runtime.Declined {
		t.Fatalf("expected second decline to propagate, got %v", st)
	}
	if breaker.State() != StateOpen {
		t.Fatalf("expected breaker to trip open after repeated declines, got %v", breaker.State())
	}
}

func TestGuardedTargetShortCircuitsWhenOpen(t *testing.T) {
	ctx := context.Background()
	downstream := runtime.NewUnboundedBuffer[int]()
	breaker := New(Config{
		ErrorPct:       1,
		WindowDuration: time.Second,
		OpenDuration:   time.Hour,
		HalfOpenProbes: 1,
	})
	breaker.RecordFailure() // trip it directly
	guard := NewGuardedTarget[int](downstream, breaker)

	if st := runtime.Send(ctx, guard, 1); st != runtime.Declined {
		t.Fatalf("expected decline while breaker is open, got %v", st)
	}
	if _, ok := downstream.TryConsume(); ok {
		t.Fatalf("expected downstream to never see the message while breaker is open")
	}
}
