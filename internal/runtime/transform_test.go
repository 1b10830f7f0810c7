package runtime

import (
	"context"
	"testing"
)

func TestTransformAppliesFunction(t *testing.T) {
	ctx := context.Background()
	out := NewUnboundedBuffer[string]()
	stage := NewTransformBuffer(func(n int) string {
		if n%2 == 0 {
			return "even"
		}
		return "odd"
	}, out)

	if st := Send(ctx, stage, 4); st != Accepted {
		t.Fatalf("expected accepted, got %v", st)
	}
	v, err := Receive[string](ctx, out)
	if err != nil || v != "even" {
		t.Fatalf("expected even, got %q err=%v", v, err)
	}
}

func TestTransformPropagatesDownstreamRefusal(t *testing.T) {
	ctx := context.Background()
	latch := NewWriteOnceBuffer[int]()
	Send(ctx, latch, 1) // occupy the latch so it declines subsequent writes

	stage := NewTransformBuffer(func(n int) int { return n * 2 }, latch)
	if st := Send(ctx, stage, 2); st != Declined {
		t.Fatalf("expected decline to propagate, got %v", st)
	}
}

func TestTransformPreservesOrderSingleProducer(t *testing.T) {
	ctx := context.Background()
	out := NewUnboundedBuffer[int]()
	stage := NewTransformBuffer(func(n int) int { return n + 1 }, out)

	for i := 0; i < 100; i++ {
		Send(ctx, stage, i)
	}
	for i := 0; i < 100; i++ {
		v, err := Receive[int](ctx, out)
		if err != nil || v != i+1 {
			t.Fatalf("expected %d, got %d err=%v", i+1, v, err)
		}
	}
}
