package runtime

import "context"

// TransformBuffer is a pipeline stage: a Target for In, a pure function
// In -> Out, and a downstream Target that receives a freshly-enveloped
// Out for every In it accepts. It holds no output queue of its own — the
// downstream buffer is the source consumers read from — so ordering
// within a single producer is preserved exactly as the downstream
// preserves it, and a downstream refusal propagates directly as the
// TransformBuffer's own Status.
type TransformBuffer[In, Out any] struct {
	fn         func(In) Out
	downstream Target[Out]
}

// NewTransformBuffer builds a stage that applies fn to every accepted
// payload and forwards the result into downstream.
func NewTransformBuffer[In, Out any](fn func(In) Out, downstream Target[Out]) *TransformBuffer[In, Out] {
	return &TransformBuffer[In, Out]{fn: fn, downstream: downstream}
}

// Accept computes fn(m.Payload()), wraps the result in a fresh Message,
// and offers it downstream. The downstream's Status is returned as-is:
// a TransformBuffer never second-guesses the downstream's decision.
func (t *TransformBuffer[In, Out]) Accept(ctx context.Context, m Message[In]) Status {
	out := t.fn(m.Release())
	return t.downstream.Accept(ctx, NewMessage(out))
}
