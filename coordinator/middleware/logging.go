package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) StartRound(ctx context.Context, participants []string) (info coordinator.RoundInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("number", info.RoundNumber),
				slog.Any("participants", participants),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start round failed", args...)

			return
		}
		lm.logger.Info("Start round completed successfully", args...)
	}(time.Now())

	return lm.svc.StartRound(ctx, participants)
}

func (lm *loggingMiddleware) Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (info coordinator.AggregateInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("snapshots", len(updates)),
			slog.Bool("include_self", includeSelf),
			slog.Int("participant_count", info.ParticipantCount),
			slog.Int("warnings", len(info.Warnings)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Aggregate weights failed", args...)

			return
		}
		lm.logger.Info("Aggregate weights completed successfully", args...)
	}(time.Now())

	return lm.svc.Aggregate(ctx, updates, includeSelf)
}

func (lm *loggingMiddleware) InitializeModel(ctx context.Context, cfg model.Config) (built model.Config, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.Any("input_shape", cfg.InputShape),
				slog.Int("num_classes", cfg.NumClasses),
				slog.String("kind", cfg.Kind().String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Initialize model failed", args...)

			return
		}
		lm.logger.Info("Initialize model completed successfully", args...)
	}(time.Now())

	return lm.svc.InitializeModel(ctx, cfg)
}

func (lm *loggingMiddleware) SetConfig(ctx context.Context, patch model.ConfigPatch) (info coordinator.ConfigInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Bool("queued", info.Queued),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Set config failed", args...)

			return
		}
		lm.logger.Info("Set config completed successfully", args...)
	}(time.Now())

	return lm.svc.SetConfig(ctx, patch)
}

func (lm *loggingMiddleware) Weights(ctx context.Context) (s tensor.Snapshot, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("layers", len(s)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get weights failed", args...)

			return
		}
		lm.logger.Info("Get weights completed successfully", args...)
	}(time.Now())

	return lm.svc.Weights(ctx)
}

func (lm *loggingMiddleware) SetWeights(ctx context.Context, s tensor.Snapshot) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("layers", len(s)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Set weights failed", args...)

			return
		}
		lm.logger.Info("Set weights completed successfully", args...)
	}(time.Now())

	return lm.svc.SetWeights(ctx, s)
}

func (lm *loggingMiddleware) UploadData(ctx context.Context, data model.TrainingData) (info coordinator.DataInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("samples", data.Len()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Upload data failed", args...)

			return
		}
		lm.logger.Info("Upload data completed successfully", args...)
	}(time.Now())

	return lm.svc.UploadData(ctx, data)
}

func (lm *loggingMiddleware) RestoreCheckpoint(ctx context.Context, tag string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("tag", tag),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Restore checkpoint failed", args...)

			return
		}
		lm.logger.Info("Restore checkpoint completed successfully", args...)
	}(time.Now())

	return lm.svc.RestoreCheckpoint(ctx, tag)
}

func (lm *loggingMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (page round.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List rounds failed", args...)

			return
		}
		lm.logger.Info("List rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRounds(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, number uint64) (r round.Round, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("number", number),
				slog.String("status", r.Status.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, number)
}

func (lm *loggingMiddleware) ListPeers(ctx context.Context) (list []peer.Peer, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("peers", len(list)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List peers failed", args...)

			return
		}
		lm.logger.Info("List peers completed successfully", args...)
	}(time.Now())

	return lm.svc.ListPeers(ctx)
}

func (lm *loggingMiddleware) Activity(ctx context.Context, limit int) (acts []peers.Activity, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List activity failed", args...)

			return
		}
		lm.logger.Info("List activity completed successfully", args...)
	}(time.Now())

	return lm.svc.Activity(ctx, limit)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (st coordinator.Status, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("state", st.State.String()),
			slog.Uint64("current_round", st.CurrentRound),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get status failed", args...)

			return
		}
		lm.logger.Info("Get status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}

func (lm *loggingMiddleware) CurrentRound() uint64 {
	return lm.svc.CurrentRound()
}

func (lm *loggingMiddleware) IsActive() bool {
	return lm.svc.IsActive()
}

func (lm *loggingMiddleware) Participants() []string {
	return lm.svc.Participants()
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) <-chan events.Event {
	lm.logger.Info("Event subscriber attached")

	return lm.svc.Subscribe(ctx)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
