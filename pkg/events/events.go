package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefBufferSize = 32

type Kind string

const (
	RoundStarted      Kind = "round_started"
	RoundCompleted    Kind = "round_completed"
	RoundFailed       Kind = "round_failed"
	WeightsAggregated Kind = "weights_aggregated"
	ModelInitialized  Kind = "model_initialized"
	ConfigUpdated     Kind = "config_updated"
)

// Event is a coordinator notification. Round is zero for events that are
// not tied to a round.
type Event struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Round     uint64         `json:"round,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

func New(kind Kind, round uint64, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Round:     round,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	nextID      uint64
	bufferSize  int
	dropped     atomic.Uint64
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefBufferSize
	}

	return &Bus{
		subscribers: make(map[uint64]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving every event published until ctx is
// done, at which point the channel is closed.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped is the number of deliveries skipped because a subscriber was
// not keeping up.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}
