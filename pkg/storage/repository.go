package storage

import (
	"context"

	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

// RoundRepository is append-only except for updates to rounds that have not
// reached a terminal status.
type RoundRepository interface {
	Create(ctx context.Context, r round.Round) error
	Get(ctx context.Context, number uint64) (round.Round, error)
	Update(ctx context.Context, r round.Round) error
	List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error)
	// Latest returns the highest round number stored, 0 when empty.
	Latest(ctx context.Context) (uint64, error)
}

type PeerRepository interface {
	Create(ctx context.Context, p peer.Peer) error
	Get(ctx context.Context, id string) (peer.Peer, error)
	Update(ctx context.Context, p peer.Peer) error
	List(ctx context.Context, offset, limit uint64) ([]peer.Peer, uint64, error)
}
