// Package streams keeps generation runs resumable. Every event of a run
// is appended to a per-stream buffer and fanned out to live subscribers,
// so a client that reconnects mid-run replays the buffered prefix and
// then follows the rest live, without gaps or duplicates.
package streams

import (
	"context"
	"time"
)

// Broker is the buffering and fan-out backend of the registry. Appends
// must reach later Replay calls and concurrently active subscribers.
type Broker interface {
	// Append stores the payload at the end of the stream's buffer and
	// notifies active subscribers.
	Append(ctx context.Context, streamID string, payload []byte) error

	// Replay returns every payload appended so far, in append order.
	Replay(ctx context.Context, streamID string) ([][]byte, error)

	// Subscribe starts receiving payloads appended after the call. The
	// returned cancel func releases the subscription.
	Subscribe(ctx context.Context, streamID string) (<-chan []byte, func(), error)

	// Expire schedules the stream's buffer for removal after ttl.
	Expire(ctx context.Context, streamID string, ttl time.Duration) error

	// Sweep removes expired buffers and reports how many were dropped.
	// Backends with native expiry may make this a no-op.
	Sweep(ctx context.Context) (int, error)

	Close() error
}
