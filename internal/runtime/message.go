// Package runtime implements the messaging runtime: a small library of
// typed, composable asynchronous buffers ("blocks") and nodes through
// which producers and consumers of messages are wired.
//
// The runtime treats payloads as opaque, clonable, serializable values.
// It never inspects payload content and never ships a payload across a
// process boundary; that remains a non-goal (see ProxyNode).
package runtime

import "math/rand/v2"

// Message is the envelope carried between producers and consumers. Every
// Message has a unique id, used only so buffers can detect "is this the
// same message I already hold" (OverwriteBuffer uses it to suppress
// redundant notification). Equality of two Messages is defined by id
// equality, not by payload equality.
type Message[T any] struct {
	payload T
	id      uint64
}

// NewMessage wraps a payload in a fresh envelope with a new, unique id.
func NewMessage[T any](payload T) Message[T] {
	return Message[T]{payload: payload, id: newID()}
}

// Payload returns a read-only view of the envelope's payload.
func (m Message[T]) Payload() T {
	return m.payload
}

// Release consumes the envelope, returning its payload. For a value type
// this is equivalent to Payload; it exists to document the destructive
// intent at queue-shaped call sites.
func (m Message[T]) Release() T {
	return m.payload
}

// ID returns the envelope's unique identifier.
func (m Message[T]) ID() uint64 {
	return m.id
}

// Equal reports whether two Messages carry the same identity. Equality
// is by id, never by payload — two envelopes holding equal payloads are
// still distinct messages unless they share an id.
func (m Message[T]) Equal(other Message[T]) bool {
	return m.id == other.id
}

// newID draws a message id from a fast, unseeded-by-us PRNG. Ids need
// only be unique within a running process with overwhelming probability;
// they are never used for security purposes, so math/rand/v2's default
// runtime seeding is sufficient and avoids the cost of a crypto source
// on every message construction.
func newID() uint64 {
	return rand.Uint64()
}
