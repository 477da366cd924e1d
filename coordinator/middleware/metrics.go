package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) StartRound(ctx context.Context, participants []string) (coordinator.RoundInfo, error) {
	defer mm.observe("start-round", time.Now())

	return mm.svc.StartRound(ctx, participants)
}

func (mm *metricsMiddleware) Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (coordinator.AggregateInfo, error) {
	defer mm.observe("aggregate", time.Now())

	return mm.svc.Aggregate(ctx, updates, includeSelf)
}

func (mm *metricsMiddleware) InitializeModel(ctx context.Context, cfg model.Config) (model.Config, error) {
	defer mm.observe("initialize-model", time.Now())

	return mm.svc.InitializeModel(ctx, cfg)
}

func (mm *metricsMiddleware) SetConfig(ctx context.Context, patch model.ConfigPatch) (coordinator.ConfigInfo, error) {
	defer mm.observe("set-config", time.Now())

	return mm.svc.SetConfig(ctx, patch)
}

func (mm *metricsMiddleware) Weights(ctx context.Context) (tensor.Snapshot, error) {
	defer mm.observe("get-weights", time.Now())

	return mm.svc.Weights(ctx)
}

func (mm *metricsMiddleware) SetWeights(ctx context.Context, s tensor.Snapshot) error {
	defer mm.observe("set-weights", time.Now())

	return mm.svc.SetWeights(ctx, s)
}

func (mm *metricsMiddleware) UploadData(ctx context.Context, data model.TrainingData) (coordinator.DataInfo, error) {
	defer mm.observe("upload-data", time.Now())

	return mm.svc.UploadData(ctx, data)
}

func (mm *metricsMiddleware) RestoreCheckpoint(ctx context.Context, tag string) error {
	defer mm.observe("restore-checkpoint", time.Now())

	return mm.svc.RestoreCheckpoint(ctx, tag)
}

func (mm *metricsMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (round.Page, error) {
	defer mm.observe("list-rounds", time.Now())

	return mm.svc.ListRounds(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, number uint64) (round.Round, error) {
	defer mm.observe("get-round", time.Now())

	return mm.svc.GetRound(ctx, number)
}

func (mm *metricsMiddleware) ListPeers(ctx context.Context) ([]peer.Peer, error) {
	defer mm.observe("list-peers", time.Now())

	return mm.svc.ListPeers(ctx)
}

func (mm *metricsMiddleware) Activity(ctx context.Context, limit int) ([]peers.Activity, error) {
	defer mm.observe("list-activity", time.Now())

	return mm.svc.Activity(ctx, limit)
}

func (mm *metricsMiddleware) Status(ctx context.Context) (coordinator.Status, error) {
	defer mm.observe("status", time.Now())

	return mm.svc.Status(ctx)
}

func (mm *metricsMiddleware) CurrentRound() uint64 {
	return mm.svc.CurrentRound()
}

func (mm *metricsMiddleware) IsActive() bool {
	return mm.svc.IsActive()
}

func (mm *metricsMiddleware) Participants() []string {
	return mm.svc.Participants()
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) <-chan events.Event {
	mm.counter.With("method", "subscribe").Add(1)

	return mm.svc.Subscribe(ctx)
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	defer mm.observe("shutdown", time.Now())

	return mm.svc.Shutdown(ctx)
}
