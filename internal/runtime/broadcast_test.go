package runtime

import (
	"context"
	"testing"
)

// TestBroadcastFanOut covers testable property 6 and S5.
func TestBroadcastFanOut(t *testing.T) {
	ctx := context.Background()
	a := NewUnboundedBuffer[uint64]()
	b := NewUnboundedBuffer[uint64]()
	node := NewBroadcastNode[uint64](a, b)

	if st := Send(ctx, node, uint64(10)); st != Accepted {
		t.Fatalf("expected broadcast accept, got %v", st)
	}
	if st := Send(ctx, node, uint64(20)); st != Accepted {
		t.Fatalf("expected broadcast accept, got %v", st)
	}

	for _, target := range []*UnboundedBuffer[uint64]{a, b} {
		v, err := Receive[uint64](ctx, target)
		if err != nil || v != 10 {
			t.Fatalf("expected 10, got %d err=%v", v, err)
		}
		v, err = Receive[uint64](ctx, target)
		if err != nil || v != 20 {
			t.Fatalf("expected 20, got %d err=%v", v, err)
		}
	}
}

// TestBroadcastEmptyRejection covers testable property 7.
func TestBroadcastEmptyRejection(t *testing.T) {
	ctx := context.Background()
	node := NewBroadcastNode[int]()
	if st := Send(ctx, node, 1); st != Declined {
		t.Fatalf("expected decline with no targets, got %v", st)
	}
}

func TestBroadcastAddTargetNoBackfill(t *testing.T) {
	ctx := context.Background()
	node := NewBroadcastNode[int]()
	Send(ctx, node, 1) // declined, no targets yet

	late := NewUnboundedBuffer[int]()
	node.AddTarget(late)
	Send(ctx, node, 2)

	v, err := Receive[int](ctx, late)
	if err != nil || v != 2 {
		t.Fatalf("expected late target to see only 2, got %d err=%v", v, err)
	}
	if _, ok := late.TryConsume(); ok {
		t.Fatalf("expected no backfilled message")
	}
}

func TestBroadcastCountAcrossTargets(t *testing.T) {
	ctx := context.Background()
	const targets = 4
	const sends = 50
	bufs := make([]*UnboundedBuffer[int], targets)
	ifaces := make([]Target[int], targets)
	for i := range bufs {
		bufs[i] = NewUnboundedBuffer[int]()
		ifaces[i] = bufs[i]
	}
	node := NewBroadcastNode(ifaces...)

	for i := 0; i < sends; i++ {
		Send(ctx, node, i)
	}

	total := 0
	for _, buf := range bufs {
		for {
			_, ok := buf.TryConsume()
			if !ok {
				break
			}
			total++
		}
	}
	if total != targets*sends {
		t.Fatalf("expected %d deliveries, got %d", targets*sends, total)
	}
}
