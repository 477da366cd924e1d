package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

type memoryRoundRepo struct {
	// mu makes the terminal check and the write in Update one step.
	mu    sync.Mutex
	store *MemoryStore[round.Round]
}

func newMemoryRoundRepository() RoundRepository {
	return &memoryRoundRepo{store: NewMemoryStore(round.Round.Clone)}
}

// roundKey pads the number so that key order is numeric order.
func roundKey(number uint64) string {
	return fmt.Sprintf("%020d", number)
}

func (r *memoryRoundRepo) Create(ctx context.Context, rnd round.Round) error {
	return r.store.Create(ctx, roundKey(rnd.Number), rnd)
}

func (r *memoryRoundRepo) Get(ctx context.Context, number uint64) (round.Round, error) {
	rnd, err := r.store.Get(ctx, roundKey(number))
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return round.Round{}, ErrRoundNotFound
	}

	return rnd, err
}

func (r *memoryRoundRepo) Update(ctx context.Context, rnd round.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Get(ctx, rnd.Number)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return pkgerrors.ErrTerminalRound
	}

	return r.store.Update(ctx, roundKey(rnd.Number), rnd)
}

func (r *memoryRoundRepo) List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error) {
	return r.store.List(ctx, offset, limit)
}

func (r *memoryRoundRepo) Latest(ctx context.Context) (uint64, error) {
	last, ok := r.store.Last(ctx)
	if !ok {
		return 0, nil
	}

	return last.Number, nil
}

type memoryPeerRepo struct {
	store *MemoryStore[peer.Peer]
}

func newMemoryPeerRepository() PeerRepository {
	return &memoryPeerRepo{store: NewMemoryStore[peer.Peer](nil)}
}

func (r *memoryPeerRepo) Create(ctx context.Context, p peer.Peer) error {
	return r.store.Create(ctx, p.ID, p)
}

func (r *memoryPeerRepo) Get(ctx context.Context, id string) (peer.Peer, error) {
	p, err := r.store.Get(ctx, id)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return peer.Peer{}, ErrPeerNotFound
	}

	return p, err
}

func (r *memoryPeerRepo) Update(ctx context.Context, p peer.Peer) error {
	err := r.store.Update(ctx, p.ID, p)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return ErrPeerNotFound
	}

	return err
}

func (r *memoryPeerRepo) List(ctx context.Context, offset, limit uint64) ([]peer.Peer, uint64, error) {
	return r.store.List(ctx, offset, limit)
}
