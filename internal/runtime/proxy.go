package runtime

import "context"

// WakeSignaler is the minimal capability a ProxyNode needs from a
// cross-process notification backend: a way to ping other processes that
// something changed. It intentionally carries no payload — shipping
// message bodies across a process boundary is a non-goal of this
// runtime (see package doc).
type WakeSignaler interface {
	Signal(ctx context.Context, channel string)
}

// ProxyNode is the sketched-but-not-implemented cross-process relay
// hook. A real proxy would forward accepted messages
// to a remote peer and surface remote messages locally; this runtime
// does not implement cross-process transport (an explicit non-goal), so
// ProxyNode.Accept only best-effort pings an optional WakeSignaler (for
// example a Redis-backed one — see internal/notify) and otherwise
// behaves as a plain pass-through to its downstream Target.
//
// Do not mistake the wake signal for replication: a peer woken by
// Signal still has nothing to read unless it independently shares the
// same backing store. ProxyNode exists so the hook has a home in the
// type graph, not so callers can build a distributed buffer today.
type ProxyNode[T any] struct {
	downstream Target[T]
	signaler   WakeSignaler
	channel    string
}

// NewProxyNode builds a ProxyNode that forwards into downstream and, if
// signaler is non-nil, pings channel on every accepted message.
func NewProxyNode[T any](downstream Target[T], signaler WakeSignaler, channel string) *ProxyNode[T] {
	return &ProxyNode[T]{downstream: downstream, signaler: signaler, channel: channel}
}

// Accept forwards m to the downstream target and, on Accepted, best-
// effort signals the configured WakeSignaler. The signal is fire-and-
// forget: a failure to signal never changes the Status returned to the
// caller.
func (p *ProxyNode[T]) Accept(ctx context.Context, m Message[T]) Status {
	status := p.downstream.Accept(ctx, m)
	if status == Accepted && p.signaler != nil {
		p.signaler.Signal(ctx, p.channel)
	}
	return status
}
