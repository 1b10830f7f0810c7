package runtime

import "context"

// Target is something to which messages of type T can be offered. Accept
// must be safe to call from any number of concurrent producers; it may
// suspend briefly while acquiring internal locks but must not suspend
// indefinitely.
type Target[T any] interface {
	Accept(ctx context.Context, m Message[T]) Status
}

// Source is something from which messages of type T can be drawn.
type Source[T any] interface {
	// TryConsume never blocks; it returns ok=false when no message is
	// currently available.
	TryConsume() (Message[T], bool)
	// Consume suspends until a message becomes available, then returns
	// it, or returns an error if the wait is terminated abnormally (e.g.
	// the caller's context is cancelled).
	Consume(ctx context.Context) (Message[T], error)
}

// Send wraps a payload in a fresh Message and offers it to target.
func Send[T any](ctx context.Context, target Target[T], payload T) Status {
	return target.Accept(ctx, NewMessage(payload))
}

// Receive awaits a Message from source and returns its payload.
func Receive[T any](ctx context.Context, source Source[T]) (T, error) {
	m, err := source.Consume(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return m.Release(), nil
}

// TryReceive attempts to draw a payload from source without blocking.
func TryReceive[T any](source Source[T]) (T, bool) {
	m, ok := source.TryConsume()
	if !ok {
		var zero T
		return zero, false
	}
	return m.Release(), true
}
