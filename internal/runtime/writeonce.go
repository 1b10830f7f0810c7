package runtime

import (
	"context"
	"sync"
)

// WriteOnceBuffer is a single-assignment latch: the first accepted
// message is exposed to every reader for the buffer's entire lifetime.
// Use it for one-shot signals ("the chain tip is now X", "genesis
// loaded").
type WriteOnceBuffer[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value Message[T]
	set   bool
}

// NewWriteOnceBuffer constructs an empty WriteOnceBuffer.
func NewWriteOnceBuffer[T any]() *WriteOnceBuffer[T] {
	b := &WriteOnceBuffer[T]{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Accept installs m if the slot is empty and returns Accepted; if the
// slot is already occupied, m is discarded and Declined is returned.
// Exactly one of any number of concurrent first-writers wins.
func (b *WriteOnceBuffer[T]) Accept(_ context.Context, m Message[T]) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.set {
		return Declined
	}
	b.value = m
	b.set = true
	b.cond.Broadcast()
	return Accepted
}

// TryConsume returns a clone of the latched value without blocking.
// Reading does not empty the slot. Readers take the same sync.Mutex as
// writers for the duration of a slot copy, so they are serialized with
// each other briefly.
func (b *WriteOnceBuffer[T]) TryConsume() (Message[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		var zero Message[T]
		return zero, false
	}
	return b.value, true
}

// Consume waits for the first write if none has happened yet, then
// returns it. Every subsequent call, from any goroutine, returns the
// same value.
func (b *WriteOnceBuffer[T]) Consume(ctx context.Context) (Message[T], error) {
	done := make(chan struct{})
	defer close(done)
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-done:
			}
		}()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.set {
		if err := ctx.Err(); err != nil {
			var zero Message[T]
			return zero, Custom("runtime: consume cancelled: %v", err)
		}
		b.cond.Wait()
	}
	return b.value, nil
}
