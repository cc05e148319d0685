package streams

import (
	"context"
	"sync"
	"time"
)

type memoryStream struct {
	entries   [][]byte
	subs      map[int]chan []byte
	nextSubID int
	expiresAt time.Time
}

// MemoryBroker is the single-process Broker. It backs tests and
// deployments without a Redis, at the cost of resumability across
// process restarts.
type MemoryBroker struct {
	mu      sync.Mutex
	streams map[string]*memoryStream
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{streams: make(map[string]*memoryStream)}
}

func (b *MemoryBroker) stream(streamID string) *memoryStream {
	s, ok := b.streams[streamID]
	if !ok {
		s = &memoryStream{subs: make(map[int]chan []byte)}
		b.streams[streamID] = s
	}
	return s
}

func (b *MemoryBroker) Append(ctx context.Context, streamID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stream(streamID)
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.entries = append(s.entries, buf)
	for _, sub := range s.subs {
		select {
		case sub <- buf:
		default:
			// A subscriber that stopped draining misses this live
			// delivery; the registry detects the sequence hole and
			// repairs it from the buffer.
		}
	}
	return nil
}

func (b *MemoryBroker) Replay(ctx context.Context, streamID string) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[streamID]
	if !ok {
		return nil, nil
	}
	out := make([][]byte, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, streamID string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stream(streamID)
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan []byte, 256)
	s.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.streams[streamID]; ok {
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		}
	}
	return ch, cancel, nil
}

func (b *MemoryBroker) Expire(ctx context.Context, streamID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.streams[streamID]; ok {
		s.expiresAt = time.Now().Add(ttl)
	}
	return nil
}

func (b *MemoryBroker) Sweep(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	dropped := 0
	for id, s := range b.streams {
		if s.expiresAt.IsZero() || s.expiresAt.After(now) {
			continue
		}
		for _, sub := range s.subs {
			close(sub)
		}
		delete(b.streams, id)
		dropped++
	}
	return dropped, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.streams {
		for _, sub := range s.subs {
			close(sub)
		}
		delete(b.streams, id)
	}
	return nil
}
