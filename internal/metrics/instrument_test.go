package metrics

import (
	"context"
	"testing"

	"github.com/oriys/conduit/internal/runtime"
)

func TestInstrumentedTargetPreservesStatus(t *testing.T) {
	downstream := runtime.NewWriteOnceBuffer[int]()
	wrapped := Instrument[int](downstream, "test:writeonce")

	ctx := context.Background()
	if st := runtime.Send(ctx, wrapped, 1); st != runtime.Accepted {
		t.Fatalf("expected first send accepted, got %v", st)
	}
	if st := runtime.Send(ctx, wrapped, 2); st != runtime.Declined {
		t.Fatalf("expected second send declined, got %v", st)
	}

	bm := Global().getBufferMetrics("test:writeonce")
	if bm.Accepts.Load() != 1 || bm.Declines.Load() != 1 {
		t.Fatalf("expected 1 accept and 1 decline recorded, got accepts=%d declines=%d",
			bm.Accepts.Load(), bm.Declines.Load())
	}
}

func TestInstrumentedSourcePassesThroughMessage(t *testing.T) {
	buf := runtime.NewUnboundedBuffer[string]()
	ctx := context.Background()
	runtime.Send(ctx, buf, "hello")

	wrapped := InstrumentSource[string](buf, "test:unbounded")
	msg, err := wrapped.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if msg.Payload() != "hello" {
		t.Fatalf("expected payload 'hello', got %q", msg.Payload())
	}
}
