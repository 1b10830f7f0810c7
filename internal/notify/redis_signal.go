package notify

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "conduit:notify:"

// RedisSignaler is a distributed wake signal backed by Redis PUBLISH/
// SUBSCRIBE: when one process signals a channel, every other process
// listening on that channel wakes immediately. As with every Signaler,
// only the channel name crosses the wire — never a message payload.
type RedisSignaler struct {
	client *redis.Client
	mu     sync.Mutex
	subs   map[string][]*redisSub
	closed bool
}

type redisSub struct {
	ch     chan struct{}
	cancel context.CancelFunc
}

// NewRedisSignaler builds a RedisSignaler on top of an existing client.
func NewRedisSignaler(client *redis.Client) *RedisSignaler {
	return &RedisSignaler{client: client, subs: make(map[string][]*redisSub)}
}

// Signal publishes a ping to the Redis channel derived from name.
func (s *RedisSignaler) Signal(ctx context.Context, channel string) {
	s.client.Publish(ctx, channelPrefix+channel, "1")
}

// Listen subscribes to the Redis channel derived from name and forwards
// every published ping to the returned channel.
func (s *RedisSignaler) Listen(ctx context.Context, channel string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &redisSub{ch: ch, cancel: cancel}
	s.subs[channel] = append(s.subs[channel], sub)
	s.mu.Unlock()

	pubsub := s.client.Subscribe(subCtx, channelPrefix+channel)

	go func() {
		defer pubsub.Close()
		msgCh := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				s.removeSub(channel, sub)
				return
			case _, ok := <-msgCh:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch
}

func (s *RedisSignaler) removeSub(channel string, target *redisSub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subs[channel]
	for i, sub := range subs {
		if sub == target {
			s.subs[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Close cancels every outstanding subscription and closes their channels.
func (s *RedisSignaler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, subs := range s.subs {
		for _, sub := range subs {
			sub.cancel()
			close(sub.ch)
		}
	}
	s.subs = nil
	return s.client.Close()
}
