package middleware

import (
	"context"

	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) StartRound(ctx context.Context, participants []string) (coordinator.RoundInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "start-round", trace.WithAttributes(
		attribute.StringSlice("participants", participants),
	))
	defer span.End()

	return tm.svc.StartRound(ctx, participants)
}

func (tm *tracing) Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (coordinator.AggregateInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.Int("snapshots", len(updates)),
		attribute.Bool("include_self", includeSelf),
	))
	defer span.End()

	return tm.svc.Aggregate(ctx, updates, includeSelf)
}

func (tm *tracing) InitializeModel(ctx context.Context, cfg model.Config) (model.Config, error) {
	ctx, span := tm.tracer.Start(ctx, "initialize-model", trace.WithAttributes(
		attribute.IntSlice("input_shape", cfg.InputShape),
		attribute.Int("num_classes", cfg.NumClasses),
	))
	defer span.End()

	return tm.svc.InitializeModel(ctx, cfg)
}

func (tm *tracing) SetConfig(ctx context.Context, patch model.ConfigPatch) (coordinator.ConfigInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "set-config")
	defer span.End()

	return tm.svc.SetConfig(ctx, patch)
}

func (tm *tracing) Weights(ctx context.Context) (tensor.Snapshot, error) {
	ctx, span := tm.tracer.Start(ctx, "get-weights")
	defer span.End()

	return tm.svc.Weights(ctx)
}

func (tm *tracing) SetWeights(ctx context.Context, s tensor.Snapshot) error {
	ctx, span := tm.tracer.Start(ctx, "set-weights", trace.WithAttributes(
		attribute.Int("layers", len(s)),
	))
	defer span.End()

	return tm.svc.SetWeights(ctx, s)
}

func (tm *tracing) UploadData(ctx context.Context, data model.TrainingData) (coordinator.DataInfo, error) {
	ctx, span := tm.tracer.Start(ctx, "upload-data", trace.WithAttributes(
		attribute.Int("samples", data.Len()),
	))
	defer span.End()

	return tm.svc.UploadData(ctx, data)
}

func (tm *tracing) RestoreCheckpoint(ctx context.Context, tag string) error {
	ctx, span := tm.tracer.Start(ctx, "restore-checkpoint", trace.WithAttributes(
		attribute.String("tag", tag),
	))
	defer span.End()

	return tm.svc.RestoreCheckpoint(ctx, tag)
}

func (tm *tracing) ListRounds(ctx context.Context, offset, limit uint64) (round.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRounds(ctx, offset, limit)
}

func (tm *tracing) GetRound(ctx context.Context, number uint64) (round.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int64("round", int64(number)),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, number)
}

func (tm *tracing) ListPeers(ctx context.Context) ([]peer.Peer, error) {
	ctx, span := tm.tracer.Start(ctx, "list-peers")
	defer span.End()

	return tm.svc.ListPeers(ctx)
}

func (tm *tracing) Activity(ctx context.Context, limit int) ([]peers.Activity, error) {
	ctx, span := tm.tracer.Start(ctx, "list-activity", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	return tm.svc.Activity(ctx, limit)
}

func (tm *tracing) Status(ctx context.Context) (coordinator.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "status")
	defer span.End()

	return tm.svc.Status(ctx)
}

func (tm *tracing) CurrentRound() uint64 {
	return tm.svc.CurrentRound()
}

func (tm *tracing) IsActive() bool {
	return tm.svc.IsActive()
}

func (tm *tracing) Participants() []string {
	return tm.svc.Participants()
}

func (tm *tracing) Subscribe(ctx context.Context) <-chan events.Event {
	return tm.svc.Subscribe(ctx)
}

func (tm *tracing) Shutdown(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "shutdown")
	defer span.End()

	return tm.svc.Shutdown(ctx)
}
