package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ftthdiag/diagchat/models"
)

// DefaultFinishedTTL is how long a finished stream's buffer stays
// replayable before the sweeper (or Redis expiry) removes it.
const DefaultFinishedTTL = 15 * time.Minute

// repairInterval is how often an idle subscription re-reads the buffer
// to recover events whose live delivery was dropped.
const repairInterval = time.Second

// envelope is the stored and published unit. The sequence number lets a
// subscriber stitch replay and live delivery together without gaps or
// duplicates.
type envelope struct {
	Seq   int64        `json:"seq"`
	Event models.Event `json:"event"`
}

// Registry is the resumable-stream registry. The generation pipeline
// publishes every run event through it; any number of subscribers can
// attach at any point during or after the run and receive the complete
// ordered event sequence.
type Registry struct {
	FinishedTTL time.Duration

	broker Broker
	logger *log.Logger
	cron   *cron.Cron

	mu   sync.Mutex
	seqs map[string]int64
}

func NewRegistry(broker Broker) *Registry {
	return &Registry{
		FinishedTTL: DefaultFinishedTTL,
		broker:      broker,
		logger:      log.New(os.Stdout, "[STREAMS] ", log.LstdFlags),
		seqs:        make(map[string]int64),
	}
}

// Publish appends one event to the stream's buffer and fans it out to
// live subscribers. Events of one stream must be published from a single
// goroutine; sequence numbers are assigned in publish order.
func (r *Registry) Publish(ctx context.Context, streamID string, ev models.Event) error {
	r.mu.Lock()
	r.seqs[streamID]++
	seq := r.seqs[streamID]
	r.mu.Unlock()

	payload, err := json.Marshal(envelope{Seq: seq, Event: ev})
	if err != nil {
		return fmt.Errorf("encode event %d of %s: %w", seq, streamID, err)
	}
	if err := r.broker.Append(ctx, streamID, payload); err != nil {
		return err
	}

	if ev.Terminal() {
		r.mu.Lock()
		delete(r.seqs, streamID)
		r.mu.Unlock()
		if err := r.broker.Expire(ctx, streamID, r.FinishedTTL); err != nil {
			r.logger.Printf("Could not schedule expiry of stream %s: %v", streamID, err)
		}
	}
	return nil
}

// Buffered reports how many events of the stream are currently buffered.
// Zero means there is nothing to replay: the stream never started or its
// buffer was already swept.
func (r *Registry) Buffered(ctx context.Context, streamID string) (int, error) {
	entries, err := r.broker.Replay(ctx, streamID)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Subscribe delivers the stream's full event sequence: everything
// buffered so far, then live events as they are published. Live delivery
// may drop under backpressure; the subscription detects the hole by
// sequence number and repairs it from the buffer, so the delivered
// sequence is gap-free and duplicate-free even for a slow consumer. The
// returned channel closes after the terminal event, after cancel is
// called, or when ctx is done. Subscribing to an unknown or already
// swept stream delivers nothing until ctx is done or cancel is called;
// callers that need faster detection should check Buffered first.
func (r *Registry) Subscribe(ctx context.Context, streamID string) (<-chan models.Event, func(), error) {
	// Live subscription first, replay second: an event published in
	// between appears in both and is dropped from the live side by its
	// sequence number.
	live, cancelLive, err := r.broker.Subscribe(ctx, streamID)
	if err != nil {
		return nil, nil, err
	}
	buffered, err := r.broker.Replay(ctx, streamID)
	if err != nil {
		cancelLive()
		return nil, nil, err
	}

	out := make(chan models.Event, 32)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			cancelLive()
		})
	}

	go func() {
		defer close(out)
		defer cancel()

		var lastSeq int64

		send := func(ev models.Event) bool {
			select {
			case out <- ev:
				return true
			case <-done:
				return false
			case <-ctx.Done():
				return false
			}
		}

		// fill delivers every buffered event past lastSeq, in order. It
		// reports whether the subscription is over: terminal delivered
		// or subscriber gone.
		fill := func(entries [][]byte) bool {
			for _, payload := range entries {
				env, ok := r.decode(streamID, payload)
				if !ok || env.Seq <= lastSeq {
					continue
				}
				lastSeq = env.Seq
				if !send(env.Event) {
					return true
				}
				if env.Event.Terminal() {
					return true
				}
			}
			return false
		}

		// refill re-reads the buffer to repair holes left by dropped
		// live deliveries.
		refill := func() bool {
			entries, err := r.broker.Replay(ctx, streamID)
			if err != nil {
				r.logger.Printf("Could not re-read buffer of stream %s: %v", streamID, err)
				return false
			}
			return fill(entries)
		}

		if fill(buffered) {
			return
		}

		ticker := time.NewTicker(repairInterval)
		defer ticker.Stop()

		for {
			select {
			case payload, ok := <-live:
				if !ok {
					// Live side ended; whatever it dropped, including
					// the terminal event, is still in the buffer.
					refill()
					return
				}
				env, ok := r.decode(streamID, payload)
				if !ok || env.Seq <= lastSeq {
					continue
				}
				if env.Seq > lastSeq+1 {
					// A live delivery was dropped; the buffer holds the
					// full sequence, this event included.
					if refill() {
						return
					}
					continue
				}
				lastSeq = env.Seq
				if !send(env.Event) {
					return
				}
				if env.Event.Terminal() {
					return
				}
			case <-ticker.C:
				if refill() {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

func (r *Registry) decode(streamID string, payload []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.logger.Printf("Dropping undecodable entry of stream %s: %v", streamID, err)
		return envelope{}, false
	}
	return env, true
}

// StartSweeper schedules periodic buffer cleanup on the given cron spec
// (e.g. "@every 5m"). Backends with native expiry sweep nothing but the
// schedule is harmless there.
func (r *Registry) StartSweeper(spec string) error {
	if r.cron != nil {
		return fmt.Errorf("sweeper already running")
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancelSweep := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelSweep()
		dropped, err := r.broker.Sweep(ctx)
		if err != nil {
			r.logger.Printf("Sweep failed: %v", err)
			return
		}
		if dropped > 0 {
			r.logger.Printf("Swept %d expired stream buffers", dropped)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Close stops the sweeper and the underlying broker.
func (r *Registry) Close() error {
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
	}
	return r.broker.Close()
}
