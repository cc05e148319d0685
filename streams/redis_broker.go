package streams

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "diagchat:stream:"

// RedisBroker persists stream buffers in a Redis list per stream and
// fans live events out over the matching pub/sub channel. Buffers
// survive process restarts, so any instance can resume any stream.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker connects using a redis:// URL and verifies the
// connection before returning.
func NewRedisBroker(ctx context.Context, url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisBroker{client: client}, nil
}

func redisKey(streamID string) string {
	return redisKeyPrefix + streamID
}

func (b *RedisBroker) Append(ctx context.Context, streamID string, payload []byte) error {
	key := redisKey(streamID)
	if err := b.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("append to %s: %w", key, err)
	}
	if err := b.client.Publish(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", key, err)
	}
	return nil
}

func (b *RedisBroker) Replay(ctx context.Context, streamID string) ([][]byte, error) {
	entries, err := b.client.LRange(ctx, redisKey(streamID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", streamID, err)
	}
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = []byte(e)
	}
	return out, nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, streamID string) (<-chan []byte, func(), error) {
	pubsub := b.client.Subscribe(ctx, redisKey(streamID))
	// Wait for the subscription to be established so that no event
	// published after this call can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", streamID, err)
	}

	out := make(chan []byte, 256)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			out <- []byte(msg.Payload)
		}
	}()
	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}

func (b *RedisBroker) Expire(ctx context.Context, streamID string, ttl time.Duration) error {
	return b.client.Expire(ctx, redisKey(streamID), ttl).Err()
}

// Sweep is a no-op: Redis drops expired keys on its own.
func (b *RedisBroker) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
