package metrics

import (
	"context"
	"time"

	"github.com/oriys/conduit/internal/circuitbreaker"
)

var stateCode = map[string]int{
	"closed":    0,
	"open":      1,
	"half_open": 2,
}

// WatchBreakers samples reg's breaker states every interval and publishes
// them as gauges until ctx is cancelled. It blocks until then, so call it
// as `go metrics.WatchBreakers(ctx, reg, time.Second)`.
func WatchBreakers(ctx context.Context, reg *circuitbreaker.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for key, state := range reg.Snapshot() {
				SetCircuitBreakerState(key, stateCode[state])
			}
		}
	}
}
