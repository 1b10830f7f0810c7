package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/oriys/conduit/internal/circuitbreaker"
)

func TestWatchBreakersStopsOnContextCancel(t *testing.T) {
	reg := circuitbreaker.NewRegistry()
	reg.Get(circuitbreaker.StageKey{Buffer: "svc-a"}, circuitbreaker.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		WatchBreakers(ctx, reg, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchBreakers did not stop after context cancellation")
	}
}
