package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/yahyaAbdulSattar/major-project/pkg/storage/badger"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/postgres"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/sqlite"
)

// Config selects the persistence backend for rounds and peers. Only the
// fields of the selected backend are read.
type Config struct {
	Type string `env:"FEDPEER_STORAGE_TYPE" envDefault:"memory"`

	PostgresHost    string `env:"FEDPEER_POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"FEDPEER_POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"FEDPEER_POSTGRES_USER"    envDefault:"fedpeer"`
	PostgresPass    string `env:"FEDPEER_POSTGRES_PASS"    envDefault:"fedpeer"`
	PostgresDB      string `env:"FEDPEER_POSTGRES_DB"      envDefault:"fedpeer"`
	PostgresSSLMode string `env:"FEDPEER_POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"FEDPEER_SQLITE_PATH" envDefault:"./fedpeer.db"`
	BadgerPath string `env:"FEDPEER_BADGER_PATH" envDefault:"./data/badger"`
}

// PostgresDSN renders the connection URL for the postgres backend.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPass),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}

	return u.String()
}

// Repositories bundles the repositories of one backend together with the
// handle that releases it.
type Repositories struct {
	Rounds RoundRepository
	Peers  PeerRepository

	closer io.Closer
}

// Close releases the backend. It is a no-op for the in-memory backend.
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Persistent reports whether rounds and peers outlive the process.
func (r *Repositories) Persistent() bool {
	return r.closer != nil
}

type opener func(cfg Config) (*Repositories, error)

var backends = map[string]opener{
	"":       openMemory,
	"memory": openMemory,
	"postgres": func(cfg Config) (*Repositories, error) {
		db, err := postgres.NewDatabase(cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}

		return &Repositories{Rounds: postgres.NewRoundRepository(db), Peers: postgres.NewPeerRepository(db), closer: db}, nil
	},
	"sqlite": func(cfg Config) (*Repositories, error) {
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite storage needs a database path")
		}
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		return &Repositories{Rounds: sqlite.NewRoundRepository(db), Peers: sqlite.NewPeerRepository(db), closer: db}, nil
	},
	"badger": func(cfg Config) (*Repositories, error) {
		if cfg.BadgerPath == "" {
			return nil, errors.New("badger storage needs a data directory")
		}
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}

		return &Repositories{Rounds: badger.NewRoundRepository(db), Peers: badger.NewPeerRepository(db), closer: db}, nil
	},
}

func NewRepositories(cfg Config) (*Repositories, error) {
	open, ok := backends[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Type)
	}

	repos, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Type, err)
	}

	return repos, nil
}

func openMemory(Config) (*Repositories, error) {
	return &Repositories{
		Rounds: newMemoryRoundRepository(),
		Peers:  newMemoryPeerRepository(),
	}, nil
}
