package runtime

import (
	"context"
	"sync"
	"testing"
)

type recordingSignaler struct {
	mu       sync.Mutex
	channels []string
}

func (r *recordingSignaler) Signal(_ context.Context, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
}

func TestProxyNodeForwardsAndSignals(t *testing.T) {
	ctx := context.Background()
	downstream := NewUnboundedBuffer[int]()
	sig := &recordingSignaler{}
	proxy := NewProxyNode[int](downstream, sig, "tip")

	if st := Send(ctx, proxy, 7); st != Accepted {
		t.Fatalf("expected accepted, got %v", st)
	}
	v, err := Receive[int](ctx, downstream)
	if err != nil || v != 7 {
		t.Fatalf("expected downstream to receive 7, got %d err=%v", v, err)
	}

	sig.mu.Lock()
	defer sig.mu.Unlock()
	if len(sig.channels) != 1 || sig.channels[0] != "tip" {
		t.Fatalf("expected one signal on channel 'tip', got %v", sig.channels)
	}
}

func TestProxyNodeWithoutSignalerIsPassthrough(t *testing.T) {
	ctx := context.Background()
	downstream := NewWriteOnceBuffer[int]()
	proxy := NewProxyNode[int](downstream, nil, "unused")

	if st := Send(ctx, proxy, 1); st != Accepted {
		t.Fatalf("expected accepted, got %v", st)
	}
	if st := Send(ctx, proxy, 2); st != Declined {
		t.Fatalf("expected decline to propagate through proxy, got %v", st)
	}
}
