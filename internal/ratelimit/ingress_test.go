package ratelimit

import (
	"context"
	"testing"

	"github.com/oriys/conduit/internal/runtime"
)

func TestIngressTargetDeclinesOverBudget(t *testing.T) {
	client := newTestRedisClient(t)
	limiter := New(client, nil, TierConfig{RequestsPerSecond: 10, BurstSize: 1})

	ctx := context.Background()
	key := "test:ingress:decline"
	client.Del(ctx, key)

	downstream := runtime.NewUnboundedBuffer[int]()
	target := NewTarget[int](downstream, limiter, key, "default")

	if st := runtime.Send(ctx, target, 1); st != runtime.Accepted {
		t.Fatalf("expected first send within burst to be accepted, got %v", st)
	}
	if st := runtime.Send(ctx, target, 2); st != runtime.Declined {
		t.Fatalf("expected second send beyond burst to be declined, got %v", st)
	}
	if downstream.Len() != 1 {
		t.Fatalf("expected exactly one message reaching downstream, got %d", downstream.Len())
	}
}
