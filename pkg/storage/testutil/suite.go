package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
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

// RoundRepositoryTests exercises a backend that starts out empty.
func RoundRepositoryTests(t *testing.T, repo RoundRepository) {
	t.Helper()
	ctx := context.Background()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), latest, "empty repository should report round 0")

	for n := uint64(1); n <= 3; n++ {
		require.NoError(t, repo.Create(ctx, TestRound(n)))
	}

	t.Run("create", func(t *testing.T) {
		err := repo.Create(ctx, TestRound(1))
		assert.Error(t, err, "creating a duplicate round should fail")
	})

	t.Run("get", func(t *testing.T) {
		cases := []struct {
			desc   string
			number uint64
			err    error
		}{
			{desc: "existing round", number: 2},
			{desc: "missing round", number: 42, err: pkgerrors.ErrNotFound},
		}
		for _, tc := range cases {
			t.Run(tc.desc, func(t *testing.T) {
				got, err := repo.Get(ctx, tc.number)
				assert.ErrorIs(t, err, tc.err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
				if tc.err == nil {
					want := TestRound(tc.number)
					assert.Equal(t, tc.number, got.Number)
					assert.Equal(t, round.Training, got.Status)
					assert.Equal(t, want.Participants, got.Participants)
					assert.True(t, got.EndTime.IsZero())
					assert.Nil(t, got.Accuracy)
				}
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		completed := CompletedRound(3)
		require.NoError(t, repo.Update(ctx, completed))

		got, err := repo.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, round.Completed, got.Status)
		require.NotNil(t, got.Accuracy)
		assert.InDelta(t, *completed.Accuracy, *got.Accuracy, 1e-9)
		assert.Equal(t, completed.Snapshot, got.Snapshot)
		assert.Equal(t, completed.Checkpoint, got.Checkpoint)
		assert.True(t, completed.EndTime.Equal(got.EndTime), "end time should round-trip")

		cases := []struct {
			desc  string
			round round.Round
			err   error
		}{
			{desc: "terminal round is frozen", round: TestRound(3), err: pkgerrors.ErrTerminalRound},
			{desc: "missing round", round: TestRound(99), err: pkgerrors.ErrNotFound},
		}
		for _, tc := range cases {
			t.Run(tc.desc, func(t *testing.T) {
				err := repo.Update(ctx, tc.round)
				assert.ErrorIs(t, err, tc.err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
			})
		}
	})

	t.Run("list", func(t *testing.T) {
		cases := []struct {
			desc    string
			offset  uint64
			limit   uint64
			numbers []uint64
		}{
			{desc: "all rounds", offset: 0, limit: 10, numbers: []uint64{1, 2, 3}},
			{desc: "page", offset: 1, limit: 1, numbers: []uint64{2}},
			{desc: "offset past end", offset: 10, limit: 10, numbers: nil},
		}
		for _, tc := range cases {
			t.Run(tc.desc, func(t *testing.T) {
				rounds, total, err := repo.List(ctx, tc.offset, tc.limit)
				require.NoError(t, err)
				assert.Equal(t, uint64(3), total)
				var numbers []uint64
				for _, r := range rounds {
					numbers = append(numbers, r.Number)
				}
				assert.Equal(t, tc.numbers, numbers)
			})
		}
	})

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest)
}

// PeerRepositoryTests exercises a backend that starts out empty.
func PeerRepositoryTests(t *testing.T, repo PeerRepository) {
	t.Helper()
	ctx := context.Background()

	for _, id := range []string{"peer-b", "peer-a", "peer-c"} {
		require.NoError(t, repo.Create(ctx, TestPeer(id)))
	}

	t.Run("get", func(t *testing.T) {
		cases := []struct {
			desc string
			id   string
			err  error
		}{
			{desc: "existing peer", id: "peer-a"},
			{desc: "missing peer", id: "peer-z", err: pkgerrors.ErrNotFound},
		}
		for _, tc := range cases {
			t.Run(tc.desc, func(t *testing.T) {
				p, err := repo.Get(ctx, tc.id)
				assert.ErrorIs(t, err, tc.err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
				if tc.err == nil {
					assert.Equal(t, tc.id, p.ID)
					assert.Equal(t, peer.Connected, p.State)
				}
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		p := TestPeer("peer-b")
		p.State = peer.Disconnected
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.Get(ctx, "peer-b")
		require.NoError(t, err)
		assert.Equal(t, peer.Disconnected, got.State)

		err = repo.Update(ctx, TestPeer("peer-z"))
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		peers, total, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		require.Len(t, peers, 3)
		assert.Equal(t, "peer-a", peers[0].ID)
		assert.Equal(t, "peer-c", peers[2].ID)

		peers, _, err = repo.List(ctx, 2, 10)
		require.NoError(t, err)
		assert.Len(t, peers, 1)
	})
}
