package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/yahyaAbdulSattar/major-project/pkg/cron"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/scheduler"
)

// AutoRounds starts rounds on a cron timetable. Participants are the fixed
// list when one is given, otherwise up to max connected peers chosen by the
// scheduler.
type AutoRounds struct {
	svc       Service
	schedule  *cron.Schedule
	scheduler scheduler.Scheduler
	fixed     []string
	max       int
	logger    *slog.Logger
	now       func() time.Time
}

func NewAutoRounds(svc Service, schedule *cron.Schedule, s scheduler.Scheduler, fixed []string, max int, logger *slog.Logger) *AutoRounds {
	return &AutoRounds{
		svc:       svc,
		schedule:  schedule,
		scheduler: s,
		fixed:     slices.Clone(fixed),
		max:       max,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *AutoRounds) Run(ctx context.Context) error {
	a.logger.Info("round schedule started", slog.String("schedule", a.schedule.String()))

	for {
		now := a.now()
		timer := time.NewTimer(a.schedule.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("round schedule stopped")

			return nil
		case <-timer.C:
			info, err := a.Trigger(ctx)
			switch {
			case errors.Is(err, pkgerrors.ErrAlreadyTraining):
				a.logger.Info("skipping scheduled round, a round is in progress")
			case err != nil:
				a.logger.Warn("scheduled round not started", slog.Any("error", err))
			default:
				a.logger.Info("scheduled round started",
					slog.Uint64("round", info.RoundNumber),
					slog.Any("participants", info.Participants),
				)
			}
		}
	}
}

// Trigger starts one round right away.
func (a *AutoRounds) Trigger(ctx context.Context) (RoundInfo, error) {
	participants := a.fixed
	if len(participants) == 0 {
		known, err := a.svc.ListPeers(ctx)
		if err != nil {
			return RoundInfo{}, fmt.Errorf("failed to list peers: %w", err)
		}
		if participants, err = a.scheduler.SelectParticipants(known, a.max); err != nil {
			return RoundInfo{}, err
		}
	}

	return a.svc.StartRound(ctx, participants)
}
