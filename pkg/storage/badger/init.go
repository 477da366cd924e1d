package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

var (
	ErrDBConnection  = errors.New("badger database connection error")
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
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

// insert stores val under key, failing if the key is already present.
func (d *Database) insert(key, val []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return pkgerrors.ErrEntityExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return txn.Set(key, val)
	})
}

// modify reads the current value under key and replaces it with whatever fn
// returns, all inside one transaction.
func (d *Database) modify(key []byte, fn func(current []byte) ([]byte, error)) error {
	return d.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return pkgerrors.ErrNotFound
			}

			return err
		}
		current, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}

		return txn.Set(key, next)
	})
}

func (d *Database) listWithPrefix(prefix []byte, offset, limit uint64) ([][]byte, error) {
	var items [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = int(min(limit, 100))
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := uint64(0)
		count := uint64(0)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++

				continue
			}
			if count >= limit {
				break
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
			count++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, nil
}

func (d *Database) countWithPrefix(prefix []byte) (uint64, error) {
	count := uint64(0)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return count, nil
}

// lastKeyWithPrefix returns the greatest key under prefix, nil when there is
// none.
func (d *Database) lastKeyWithPrefix(prefix []byte) ([]byte, error) {
	var key []byte
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		it.Seek(seek)
		if it.ValidForPrefix(prefix) {
			key = it.Item().KeyCopy(nil)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return key, nil
}
