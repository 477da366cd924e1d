package coordinator_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/coordinator/mocks"
	"github.com/yahyaAbdulSattar/major-project/pkg/cron"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/scheduler"
)

func TestAutoRoundsTrigger(t *testing.T) {
	known := []peer.Peer{
		{ID: "peer-a", State: peer.Connected},
		{ID: "peer-b", State: peer.Disconnected},
		{ID: "peer-c", State: peer.Connected},
	}
	schedule, err := cron.Parse("@hourly", "")
	require.NoError(t, err)

	cases := []struct {
		desc         string
		fixed        []string
		max          int
		peers        []peer.Peer
		participants []string
		startErr     error
		err          error
	}{
		{
			desc:         "fixed participants",
			fixed:        []string{"peer-z"},
			participants: []string{"peer-z"},
		},
		{
			desc:         "connected peers",
			peers:        known,
			participants: []string{"peer-a", "peer-c"},
		},
		{
			desc:         "limited to one peer",
			peers:        known,
			max:          1,
			participants: []string{"peer-a"},
		},
		{
			desc:  "nobody connected",
			peers: []peer.Peer{{ID: "peer-b", State: peer.Disconnected}},
			err:   scheduler.ErrNoLivePeers,
		},
		{
			desc:         "round in progress",
			fixed:        []string{"peer-a"},
			participants: []string{"peer-a"},
			startErr:     pkgerrors.ErrAlreadyTraining,
			err:          pkgerrors.ErrAlreadyTraining,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			svc := new(mocks.Service)
			svc.On("ListPeers", mock.Anything).Return(tc.peers, nil).Maybe()
			if tc.participants != nil {
				svc.On("StartRound", mock.Anything, tc.participants).
					Return(coordinator.RoundInfo{RoundNumber: 1, Participants: tc.participants}, tc.startErr)
			}

			auto := coordinator.NewAutoRounds(svc, schedule, scheduler.NewRoundRobin(), tc.fixed, tc.max, slog.New(slog.NewTextHandler(io.Discard, nil)))
			info, err := auto.Trigger(context.Background())
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.participants, info.Participants)
			}
			if tc.participants == nil {
				svc.AssertNotCalled(t, "StartRound", mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAutoRoundsRun(t *testing.T) {
	schedule, err := cron.Parse("@every 1s", "")
	require.NoError(t, err)

	started := make(chan struct{}, 4)
	svc := new(mocks.Service)
	svc.On("StartRound", mock.Anything, []string{"peer-a"}).
		Return(coordinator.RoundInfo{RoundNumber: 1, Participants: []string{"peer-a"}}, nil).
		Run(func(mock.Arguments) { started <- struct{}{} })

	auto := coordinator.NewAutoRounds(svc, schedule, scheduler.NewRoundRobin(), []string{"peer-a"}, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- auto.Run(ctx)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled round was not started")
	}
	cancel()
	assert.NoError(t, <-done)
}
