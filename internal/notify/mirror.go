package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// Mirror best-effort publishes a JSON snapshot of a value to a shared
// Redis key every time it changes, for payloads that are serializable
// enough to ship to a future out-of-process reader, without
// implementing real cross-process consumption: writing the mirror
// never blocks the local OverwriteBuffer accept, and a failed write is
// swallowed (logged by the caller if it cares) rather than surfaced as
// a Declined/error, since the mirror is a convenience side-channel, not
// the buffer's authoritative state.
type Mirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewMirror builds a Mirror that writes snapshots to key with the given
// TTL (zero means no expiry).
func NewMirror(client *redis.Client, key string, ttl time.Duration) *Mirror {
	return &Mirror{client: client, key: key, ttl: ttl}
}

// Publish marshals value to JSON and SETs it under the mirror's key.
func (m *Mirror) Publish(ctx context.Context, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, m.key, data, m.ttl).Err()
}

// Fetch reads back the most recently published snapshot, if any, and
// unmarshals it into dest.
func (m *Mirror) Fetch(ctx context.Context, dest any) (bool, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}
