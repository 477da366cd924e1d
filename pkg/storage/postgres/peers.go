package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
)

type peerRepo struct {
	db *Database
}

func NewPeerRepository(db *Database) PeerRepository {
	return &peerRepo{db: db}
}

func (r *peerRepo) Create(ctx context.Context, p peer.Peer) error {
	query := `INSERT INTO peers (id, state, first_seen, last_seen) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, p.ID, string(p.State), p.FirstSeen, p.LastSeen); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *peerRepo) Get(ctx context.Context, id string) (peer.Peer, error) {
	query := `SELECT id, state, first_seen, last_seen FROM peers WHERE id = $1`

	var p peer.Peer
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(&p.ID, &p.State, &p.FirstSeen, &p.LastSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return peer.Peer{}, ErrPeerNotFound
		}

		return peer.Peer{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return p, nil
}

func (r *peerRepo) Update(ctx context.Context, p peer.Peer) error {
	query := `UPDATE peers SET state = $1, first_seen = $2, last_seen = $3 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, string(p.State), p.FirstSeen, p.LastSeen, p.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	if n == 0 {
		return ErrPeerNotFound
	}

	return nil
}

func (r *peerRepo) List(ctx context.Context, offset, limit uint64) ([]peer.Peer, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM peers"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, state, first_seen, last_seen FROM peers ORDER BY id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, sqlLimit(limit), sqlLimit(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	peers := make([]peer.Peer, 0)
	for rows.Next() {
		var p peer.Peer
		if err := rows.Scan(&p.ID, &p.State, &p.FirstSeen, &p.LastSeen); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
		}
		peers = append(peers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return peers, total, nil
}
