package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

const roundPrefix = "round:"

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

// Numbers are zero padded so that key order is numeric order.
func roundKey(number uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", roundPrefix, number)
}

func (r *roundRepo) Create(ctx context.Context, rnd round.Round) error {
	val, err := json.Marshal(rnd)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.insert(roundKey(rnd.Number), val); err != nil {
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			return err
		}

		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *roundRepo) Get(ctx context.Context, number uint64) (round.Round, error) {
	val, err := r.db.get(roundKey(number))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return round.Round{}, ErrRoundNotFound
		}

		return round.Round{}, err
	}
	var rnd round.Round
	if err := json.Unmarshal(val, &rnd); err != nil {
		return round.Round{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return rnd, nil
}

func (r *roundRepo) Update(ctx context.Context, rnd round.Round) error {
	val, err := json.Marshal(rnd)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	err = r.db.modify(roundKey(rnd.Number), func(current []byte) ([]byte, error) {
		var stored round.Round
		if err := json.Unmarshal(current, &stored); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		if stored.Status.Terminal() {
			return nil, pkgerrors.ErrTerminalRound
		}

		return val, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pkgerrors.ErrNotFound):
		return ErrRoundNotFound
	case errors.Is(err, pkgerrors.ErrTerminalRound):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error) {
	prefix := []byte(roundPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}
	values, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	rounds := make([]round.Round, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &rounds[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return rounds, total, nil
}

func (r *roundRepo) Latest(ctx context.Context) (uint64, error) {
	key, err := r.db.lastKeyWithPrefix([]byte(roundPrefix))
	if err != nil {
		return 0, err
	}
	if key == nil {
		return 0, nil
	}
	number, err := strconv.ParseUint(strings.TrimPrefix(string(key), roundPrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed round key %q", pkgerrors.ErrInvalidData, key)
	}

	return number, nil
}
