package tracing

import (
	"context"

	"github.com/oriys/conduit/internal/runtime"
)

// TracedTarget wraps a runtime.Target so every Accept call runs inside a
// span named after buffer, tagged with the message id and resulting
// status. When tracing is disabled, Tracer() is a no-op and this adds
// negligible overhead.
type TracedTarget[T any] struct {
	downstream runtime.Target[T]
	buffer     string
}

// Trace wraps downstream so every Accept call is traced under name.
func Trace[T any](downstream runtime.Target[T], name string) *TracedTarget[T] {
	return &TracedTarget[T]{downstream: downstream, buffer: name}
}

func (t *TracedTarget[T]) Accept(ctx context.Context, m runtime.Message[T]) runtime.Status {
	ctx, span := StartSpan(ctx, t.buffer+".accept",
		AttrBuffer.String(t.buffer),
		AttrMessageID.Int64(int64(m.ID())),
	)
	defer span.End()

	status := t.downstream.Accept(ctx, m)
	span.SetAttributes(AttrStatus.String(status.String()))
	SetSpanOK(span)
	return status
}
