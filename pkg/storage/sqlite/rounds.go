package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
)

const roundColumns = `number, status, participants, start_time, end_time, accuracy, loss, mae, error, snapshot, checkpoint, updated_at`

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

type dbRound struct {
	Number       uint64     `db:"number"`
	Status       uint8      `db:"status"`
	Participants []byte     `db:"participants"`
	StartTime    *time.Time `db:"start_time"`
	EndTime      *time.Time `db:"end_time"`
	Accuracy     *float64   `db:"accuracy"`
	Loss         *float64   `db:"loss"`
	MAE          *float64   `db:"mae"`
	Error        *string    `db:"error"`
	Snapshot     []byte     `db:"snapshot"`
	Checkpoint   *string    `db:"checkpoint"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r *roundRepo) Create(ctx context.Context, rnd round.Round) error {
	query := `INSERT INTO rounds (` + roundColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	participants, err := jsonBytes(rnd.Participants)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		rnd.Number, uint8(rnd.Status), participants, nullTime(rnd.StartTime), nullTime(rnd.EndTime),
		rnd.Accuracy, rnd.Loss, rnd.MAE, nullString(rnd.Error), rnd.Snapshot, nullString(rnd.Checkpoint), rnd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *roundRepo) Get(ctx context.Context, number uint64) (round.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE number = ?`

	var dbr dbRound
	if err := r.db.GetContext(ctx, &dbr, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return round.Round{}, ErrRoundNotFound
		}

		return round.Round{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toRound(dbr)
}

// Update only touches rounds that have not reached a terminal status.
func (r *roundRepo) Update(ctx context.Context, rnd round.Round) error {
	query := `UPDATE rounds SET status = ?, participants = ?, start_time = ?, end_time = ?, accuracy = ?, loss = ?, mae = ?,
		error = ?, snapshot = ?, checkpoint = ?, updated_at = ? WHERE number = ? AND status NOT IN (?, ?)`

	participants, err := jsonBytes(rnd.Participants)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query,
		uint8(rnd.Status), participants, nullTime(rnd.StartTime), nullTime(rnd.EndTime),
		rnd.Accuracy, rnd.Loss, rnd.MAE, nullString(rnd.Error), rnd.Snapshot, nullString(rnd.Checkpoint), rnd.UpdatedAt,
		rnd.Number, uint8(round.Completed), uint8(round.Failed))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, rnd.Number); err != nil {
		return err
	}

	return pkgerrors.ErrTerminalRound
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM rounds"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT ` + roundColumns + ` FROM rounds ORDER BY number ASC LIMIT ? OFFSET ?`

	var rows []dbRound
	if err := r.db.SelectContext(ctx, &rows, query, sqlLimit(limit), sqlLimit(offset)); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	rounds := make([]round.Round, 0, len(rows))
	for _, dbr := range rows {
		rnd, err := toRound(dbr)
		if err != nil {
			return nil, 0, err
		}
		rounds = append(rounds, rnd)
	}

	return rounds, total, nil
}

func (r *roundRepo) Latest(ctx context.Context) (uint64, error) {
	var latest uint64
	if err := r.db.GetContext(ctx, &latest, "SELECT COALESCE(MAX(number), 0) FROM rounds"); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return latest, nil
}

func toRound(dbr dbRound) (round.Round, error) {
	rnd := round.Round{
		Number:     dbr.Number,
		Status:     round.Status(dbr.Status),
		StartTime:  valueOf(dbr.StartTime),
		EndTime:    valueOf(dbr.EndTime),
		Accuracy:   dbr.Accuracy,
		Loss:       dbr.Loss,
		MAE:        dbr.MAE,
		Error:      valueOf(dbr.Error),
		Snapshot:   dbr.Snapshot,
		Checkpoint: valueOf(dbr.Checkpoint),
		UpdatedAt:  dbr.UpdatedAt,
	}
	if err := jsonUnmarshal(dbr.Participants, &rnd.Participants); err != nil {
		return round.Round{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return rnd, nil
}
