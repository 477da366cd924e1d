package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

var (
	ErrDBConnection  = errors.New("database connection error")
	ErrDBQuery       = errors.New("database query error")
	ErrCreate        = errors.New("create error")
	ErrUpdate        = errors.New("update error")
	ErrRoundNotFound = fmt.Errorf("round %w", pkgerrors.ErrNotFound)
	ErrPeerNotFound  = fmt.Errorf("peer %w", pkgerrors.ErrNotFound)
)

type RoundRepository interface {
	Create(ctx context.Context, r round.Round) error
	Get(ctx context.Context, number uint64) (round.Round, error)
	Update(ctx context.Context, r round.Round) error
	List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error)
	Latest(ctx context.Context) (uint64, error)
}

type PeerRepository interface {
	Create(ctx context.Context, p peer.Peer) error
	Get(ctx context.Context, id string) (peer.Peer, error)
	Update(ctx context.Context, p peer.Peer) error
	List(ctx context.Context, offset, limit uint64) ([]peer.Peer, uint64, error)
}

type Database struct {
	*sqlx.DB
}

// NewDatabase connects with the pgx driver and applies pending migrations.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_rounds",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS rounds (
						number BIGINT PRIMARY KEY,
						status SMALLINT NOT NULL DEFAULT 0,
						participants JSONB NOT NULL,
						start_time TIMESTAMPTZ,
						end_time TIMESTAMPTZ,
						accuracy DOUBLE PRECISION,
						loss DOUBLE PRECISION,
						mae DOUBLE PRECISION,
						error TEXT,
						snapshot BYTEA,
						checkpoint VARCHAR(255),
						updated_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_rounds_status`,
					`DROP TABLE IF EXISTS rounds`,
				},
			},
			{
				Id: "2_create_peers",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS peers (
						id VARCHAR(255) PRIMARY KEY,
						state VARCHAR(32) NOT NULL,
						first_seen TIMESTAMPTZ NOT NULL,
						last_seen TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_peers_state ON peers(state)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_peers_state`,
					`DROP TABLE IF EXISTS peers`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
