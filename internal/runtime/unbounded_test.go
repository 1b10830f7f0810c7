package runtime

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestUnboundedFIFOSingleProducerConsumer covers S1 and testable
// property 1: for a single producer/single consumer pair, receive
// observes exactly the sequence sent.
func TestUnboundedFIFOSingleProducerConsumer(t *testing.T) {
	ctx := context.Background()
	b := NewUnboundedBuffer[uint64]()

	Send(ctx, b, uint64(10))
	Send(ctx, b, uint64(20))

	v, err := Receive[uint64](ctx, b)
	if err != nil || v != 10 {
		t.Fatalf("expected 10, got %d err=%v", v, err)
	}
	v, err = Receive[uint64](ctx, b)
	if err != nil || v != 20 {
		t.Fatalf("expected 20, got %d err=%v", v, err)
	}
}

// TestUnboundedConsumeWaitsForLateSend covers S2: a consumer parked on
// an empty buffer wakes once a delayed send arrives.
func TestUnboundedConsumeWaitsForLateSend(t *testing.T) {
	ctx := context.Background()
	b := NewUnboundedBuffer[uint64]()

	start := time.Now()
	go func() {
		time.Sleep(150 * time.Millisecond)
		Send(ctx, b, uint64(30))
	}()

	v, err := Receive[uint64](ctx, b)
	if err != nil || v != 30 {
		t.Fatalf("expected 30, got %d err=%v", v, err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Fatalf("expected consume to block until the delayed send")
	}
}

// TestUnboundedNoMessageLoss covers testable property 2 and S6: N
// producers each send K items, a single consumer drains N*K items and
// the sum matches.
func TestUnboundedNoMessageLoss(t *testing.T) {
	ctx := context.Background()
	b := NewUnboundedBuffer[int]()

	const producers = 2
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				Send(ctx, b, i)
			}
		}()
	}

	total := 0
	for i := 0; i < producers*perProducer; i++ {
		v, err := Receive[int](ctx, b)
		if err != nil {
			t.Fatalf("receive %d: %v", i, err)
		}
		total += v
	}
	wg.Wait()

	expected := producers * (perProducer * (perProducer - 1) / 2)
	if total != expected {
		t.Fatalf("expected sum %d, got %d", expected, total)
	}
	if _, ok := b.TryConsume(); ok {
		t.Fatalf("expected buffer to be drained")
	}
}

// TestUnboundedAtMostOneDelivery covers testable property 3: for a
// single send, exactly one of several concurrent consumers receives it.
func TestUnboundedAtMostOneDelivery(t *testing.T) {
	b := NewUnboundedBuffer[int]()

	const consumers = 8
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	results := make(chan int, consumers)
	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Receive[int](ctx, b)
			if err == nil {
				results <- v
			}
		}()
	}

	time.Sleep(20 * time.Millisecond) // let consumers park
	Send(context.Background(), b, 42)

	select {
	case v := <-results:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("no consumer received the message")
	}

	select {
	case v := <-results:
		t.Fatalf("unexpected second delivery: %d", v)
	case <-time.After(50 * time.Millisecond):
	}

	wg.Wait() // remaining consumers unblock once ctx deadline passes
}

func TestUnboundedConsumeCancellation(t *testing.T) {
	b := NewUnboundedBuffer[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := b.Consume(ctx)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestUnboundedTryConsumeNeverBlocks(t *testing.T) {
	b := NewUnboundedBuffer[int]()
	if _, ok := b.TryConsume(); ok {
		t.Fatalf("expected empty buffer to report no message")
	}
}
