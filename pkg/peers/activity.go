package peers

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefActivityCapacity = 100

type ActivityKind string

const (
	RoundStarted      ActivityKind = "round-started"
	RoundCompleted    ActivityKind = "round-completed"
	RoundFailed       ActivityKind = "round-failed"
	WeightsAggregated ActivityKind = "weights-aggregated"
	PeerJoined        ActivityKind = "peer-joined"
	PeerLeft          ActivityKind = "peer-left"
	ModelInitialized  ActivityKind = "model-initialized"
	ConfigUpdated     ActivityKind = "config-updated"
	DataUploaded      ActivityKind = "data-uploaded"
)

type Activity struct {
	ID        string         `json:"id"`
	Kind      ActivityKind   `json:"kind"`
	PeerID    string         `json:"peer_id,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ActivityLog keeps the most recent entries in a fixed size ring, dropping
// the oldest once full.
type ActivityLog struct {
	mu      sync.Mutex
	entries []Activity
	next    int
	full    bool
}

func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = DefActivityCapacity
	}

	return &ActivityLog{entries: make([]Activity, capacity)}
}

func (l *ActivityLog) Record(kind ActivityKind, peerID, message string, metadata map[string]any) Activity {
	a := Activity{
		ID:        uuid.NewString(),
		Kind:      kind,
		PeerID:    peerID,
		Message:   message,
		Metadata:  maps.Clone(metadata),
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = a
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}

	return a
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything held.
func (l *ActivityLog) Recent(limit int) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Activity, 0, limit)
	for i := range limit {
		idx := (l.next - 1 - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}

	return out
}

func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.full {
		return len(l.entries)
	}

	return l.next
}
