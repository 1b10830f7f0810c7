package metrics

import (
	"context"
	"time"

	"github.com/oriys/conduit/internal/runtime"
)

// InstrumentedTarget wraps a runtime.Target and records Accept outcomes and
// latency under the given buffer name, without changing the returned
// Status.
type InstrumentedTarget[T any] struct {
	downstream runtime.Target[T]
	buffer     string
}

// Instrument wraps downstream so every Accept call is recorded against name.
func Instrument[T any](downstream runtime.Target[T], name string) *InstrumentedTarget[T] {
	return &InstrumentedTarget[T]{downstream: downstream, buffer: name}
}

func (t *InstrumentedTarget[T]) Accept(ctx context.Context, m runtime.Message[T]) runtime.Status {
	start := time.Now()
	status := t.downstream.Accept(ctx, m)
	Global().RecordAccept(t.buffer, time.Since(start).Microseconds(), status.String())
	return status
}

// InstrumentedSource wraps a runtime.Source and records how long Consume
// blocked waiting for a message under the given buffer name.
type InstrumentedSource[T any] struct {
	upstream runtime.Source[T]
	buffer   string
}

// InstrumentSource wraps upstream so every Consume call's wait is recorded
// against name.
func InstrumentSource[T any](upstream runtime.Source[T], name string) *InstrumentedSource[T] {
	return &InstrumentedSource[T]{upstream: upstream, buffer: name}
}

func (s *InstrumentedSource[T]) TryConsume() (runtime.Message[T], bool) {
	return s.upstream.TryConsume()
}

func (s *InstrumentedSource[T]) Consume(ctx context.Context) (runtime.Message[T], error) {
	start := time.Now()
	msg, err := s.upstream.Consume(ctx)
	RecordConsumeWait(s.buffer, time.Since(start).Microseconds())
	return msg, err
}
