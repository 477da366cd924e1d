package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var errTrainingPanic = errors.New("training panicked")

// run drives one admitted round to a terminal state. Every exit path ends
// in finish, so the coordinator can never be left in an active state.
func (svc *service) run(ctx context.Context, r round.Round, handle model.Handle, data model.TrainingData) {
	defer svc.wg.Done()

	// Persistence must outlive a cancelled round.
	store := context.WithoutCancel(ctx)

	defer func() {
		if p := recover(); p != nil {
			svc.fail(store, r, fmt.Errorf("%w: %v", errTrainingPanic, p))
		}
	}()

	metrics, err := fit(ctx, handle, data)
	if err != nil {
		svc.fail(store, r, fmt.Errorf("training failed: %w", err))

		return
	}
	svc.logger.Info("local training finished",
		slog.Uint64("round", r.Number),
		slog.Float64("loss", metrics.Loss),
		slog.Int("samples", metrics.Samples),
	)

	if err := svc.advance(store, &r, round.Aggregating); err != nil {
		svc.fail(store, r, err)

		return
	}

	local := handle.Weights()
	if svc.publisher != nil {
		if err := svc.publisher.PublishWeights(ctx, r.Number, local); err != nil {
			svc.logger.Warn("failed to publish local weights", slog.Uint64("round", r.Number), slog.Any("error", err))
		}
	}

	var updates []fl.Update
	if svc.source != nil {
		updates, err = svc.source.Collect(ctx, r.Number, svc.remote(r.Participants))
		switch {
		case ctx.Err() != nil:
			svc.fail(store, r, fmt.Errorf("aggregation cancelled: %w", ctx.Err()))

			return
		case err != nil:
			svc.logger.Warn("failed to collect peer weights", slog.Uint64("round", r.Number), slog.Any("error", err))
		}
	}

	res, err := svc.aggregator.Aggregate(local, updates, true)
	if err != nil {
		svc.fail(store, r, fmt.Errorf("aggregation failed: %w", err))

		return
	}
	if err := handle.SetWeights(res.Weights); err != nil {
		svc.fail(store, r, fmt.Errorf("failed to install merged weights: %w", err))

		return
	}

	done := r
	blob, err := tensor.Encode(res.Weights)
	if err != nil {
		svc.restore(handle, local, r.Number)
		svc.fail(store, r, err)

		return
	}
	done.Snapshot = blob
	done.Loss = &metrics.Loss
	done.Accuracy = metrics.Accuracy
	done.MAE = metrics.MAE

	if svc.checkpoints != nil {
		tag, err := svc.checkpoints.Save(store, r.Number, res.Weights)
		if err != nil {
			svc.logger.Warn("failed to checkpoint merged weights", slog.Uint64("round", r.Number), slog.Any("error", err))
		} else {
			done.Checkpoint = tag
		}
	}

	if err := svc.advance(store, &done, round.Completed); err != nil {
		svc.restore(handle, local, r.Number)
		svc.fail(store, r, err)

		return
	}
	r = done
	svc.aggregated("round", r.Number, res)
	svc.finish(r, Completed, "")

	RoundTotal.WithLabelValues("completed").Inc()
	RoundDuration.WithLabelValues("completed").Observe(r.EndTime.Sub(r.StartTime).Seconds())
	meta := map[string]any{
		"round":        r.Number,
		"loss":         metrics.Loss,
		"participants": r.Participants,
		"peer_updates": len(updates),
	}
	if r.Accuracy != nil {
		meta["accuracy"] = *r.Accuracy
	}
	if r.MAE != nil {
		meta["mae"] = *r.MAE
	}
	if r.Checkpoint != "" {
		meta["checkpoint"] = r.Checkpoint
	}
	svc.record(peers.RoundCompleted, fmt.Sprintf("round %d completed", r.Number), meta)
	svc.bus.Publish(events.New(events.RoundCompleted, r.Number, meta))
	svc.logger.Info("round completed", slog.Uint64("round", r.Number), slog.Float64("loss", metrics.Loss))
}

func fit(ctx context.Context, handle model.Handle, data model.TrainingData) (m model.Metrics, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errTrainingPanic, p)
		}
	}()

	return handle.Fit(ctx, data)
}

// advance moves r to the next status and persists it, mirroring the state
// in the coordinator.
// On a persistence error r is left in its previous status.
func (svc *service) advance(ctx context.Context, r *round.Round, to round.Status) error {
	prev := *r
	if err := r.Transition(to, svc.now()); err != nil {
		return err
	}
	if err := svc.rounds.Update(ctx, *r); err != nil {
		*r = prev

		return fmt.Errorf("failed to persist round %d: %w", r.Number, err)
	}
	if to == round.Aggregating {
		svc.mu.Lock()
		svc.state = Aggregating
		svc.mu.Unlock()
	}

	return nil
}

func (svc *service) fail(ctx context.Context, r round.Round, cause error) {
	r.Error = cause.Error()
	if err := r.Transition(round.Failed, svc.now()); err != nil {
		svc.logger.Error("invalid transition to failed", slog.Uint64("round", r.Number), slog.Any("error", err))
	} else if err := svc.rounds.Update(ctx, r); err != nil {
		svc.logger.Error("failed to persist failed round", slog.Uint64("round", r.Number), slog.Any("error", err))
	}
	svc.finish(r, Failed, r.Error)

	RoundTotal.WithLabelValues("failed").Inc()
	RoundDuration.WithLabelValues("failed").Observe(svc.now().Sub(r.StartTime).Seconds())
	meta := map[string]any{"round": r.Number, "error": r.Error}
	svc.record(peers.RoundFailed, fmt.Sprintf("round %d failed", r.Number), meta)
	svc.bus.Publish(events.New(events.RoundFailed, r.Number, meta))
	svc.logger.Warn("round failed", slog.Uint64("round", r.Number), slog.String("error", r.Error))
}

// restore puts back the locally trained weights after a merge that could not
// be committed.
func (svc *service) restore(handle model.Handle, local tensor.Snapshot, number uint64) {
	if err := handle.SetWeights(local); err != nil {
		svc.logger.Error("failed to restore local weights", slog.Uint64("round", number), slog.Any("error", err))
	}
}

// finish leaves the active state and applies any config queued while the
// round ran.
func (svc *service) finish(r round.Round, state State, reason string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if !svc.state.Active() || svc.current != r.Number {
		return
	}
	svc.state = state
	svc.lastError = reason
	if svc.cancel != nil {
		svc.cancel()
		svc.cancel = nil
	}
	if !svc.pending.Empty() {
		svc.cfg = svc.cfg.Apply(svc.pending).Normalize()
		svc.pending = model.ConfigPatch{}
		if svc.handle != nil {
			svc.handle.Tune(svc.cfg)
		}
	}
	RoundActive.Set(0)
}

// remote drops this node from a participant list.
func (svc *service) remote(participants []string) []string {
	return slices.DeleteFunc(slices.Clone(participants), func(id string) bool {
		return id == svc.selfID || id == fl.SelfID
	})
}
