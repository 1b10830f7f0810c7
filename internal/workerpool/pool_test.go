package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oriys/conduit/internal/runtime"
)

func TestPoolDrainsFixedWorkers(t *testing.T) {
	source := runtime.NewUnboundedBuffer[int]()
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	sink := func(ctx context.Context, msg runtime.Message[int]) error {
		mu.Lock()
		got = append(got, msg.Payload())
		n := len(got)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
		return nil
	}

	pool := New[int](source, sink, Config{Workers: 2})
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		runtime.Send(ctx, source, i)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pool to drain source")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("expected 5 messages drained, got %d", len(got))
	}
}

func TestPoolAdaptiveModeDrains(t *testing.T) {
	source := runtime.NewUnboundedBuffer[string]()
	done := make(chan struct{})
	var mu sync.Mutex
	seen := 0

	sink := func(ctx context.Context, msg runtime.Message[string]) error {
		mu.Lock()
		seen++
		n := seen
		mu.Unlock()
		if n == 10 {
			close(done)
		}
		return nil
	}

	pool := New[string](source, sink, Config{
		DepthPoll: 20 * time.Millisecond,
		Adaptive: AdaptiveConfig{
			Enabled:       true,
			ProbeInterval: 20 * time.Millisecond,
			MinWorkers:    1,
			MaxWorkers:    8,
		},
	})
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		runtime.Send(ctx, source, "m")
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for adaptive pool to drain source")
	}
}
