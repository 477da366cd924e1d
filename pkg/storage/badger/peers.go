package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
)

const peerPrefix = "peer:"

type peerRepo struct {
	db *Database
}

func NewPeerRepository(db *Database) PeerRepository {
	return &peerRepo{db: db}
}

func (r *peerRepo) Create(ctx context.Context, p peer.Peer) error {
	if p.ID == "" {
		return pkgerrors.ErrEmptyKey
	}
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.insert([]byte(peerPrefix+p.ID), val); err != nil {
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			return err
		}

		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *peerRepo) Get(ctx context.Context, id string) (peer.Peer, error) {
	val, err := r.db.get([]byte(peerPrefix + id))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return peer.Peer{}, ErrPeerNotFound
		}

		return peer.Peer{}, err
	}
	var p peer.Peer
	if err := json.Unmarshal(val, &p); err != nil {
		return peer.Peer{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return p, nil
}

func (r *peerRepo) Update(ctx context.Context, p peer.Peer) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	err = r.db.modify([]byte(peerPrefix+p.ID), func([]byte) ([]byte, error) {
		return val, nil
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return ErrPeerNotFound
		}

		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *peerRepo) List(ctx context.Context, offset, limit uint64) ([]peer.Peer, uint64, error) {
	prefix := []byte(peerPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	peers := make([]peer.Peer, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &peers[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return peers, total, nil
}
