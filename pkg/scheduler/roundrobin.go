package scheduler

import (
	"sync"

	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
)

// roundRobin rotates through the connected peers so that, when fewer than
// all of them are asked per round, every peer gets its turn.
type roundRobin struct {
	mu   sync.Mutex
	last int
}

func NewRoundRobin() Scheduler {
	return &roundRobin{}
}

func (r *roundRobin) SelectParticipants(peers []peer.Peer, max int) ([]string, error) {
	if max < 0 {
		return nil, ErrInvalidMaximum
	}
	if len(peers) == 0 {
		return nil, ErrNoPeers
	}

	alive := connected(peers)
	if len(alive) == 0 {
		return nil, ErrNoLivePeers
	}
	if max == 0 || max >= len(alive) {
		return alive, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.last % len(alive)
	selected := make([]string, 0, max)
	for i := range max {
		selected = append(selected, alive[(start+i)%len(alive)])
	}
	r.last = start + max

	return selected, nil
}
