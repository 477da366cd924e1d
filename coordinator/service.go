package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var ErrShutdown = errors.New("coordinator is shut down")

type service struct {
	mu           sync.RWMutex
	state        State
	current      uint64
	participants []string
	lastError    string
	cfg          model.Config
	pending      model.ConfigPatch
	handle       model.Handle
	data         *model.TrainingData
	cancel       context.CancelFunc
	closed       bool
	wg           sync.WaitGroup

	rounds      storage.RoundRepository
	directory   *peers.Directory
	activity    *peers.ActivityLog
	bus         *events.Bus
	aggregator  fl.Aggregator
	source      SnapshotSource
	publisher   WeightPublisher
	checkpoints Checkpointer
	selfID      string
	build       func(model.Config) (model.Handle, error)
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*service)

func WithSnapshotSource(src SnapshotSource) Option {
	return func(s *service) {
		s.source = src
	}
}

func WithWeightPublisher(p WeightPublisher) Option {
	return func(s *service) {
		s.publisher = p
	}
}

func WithCheckpointer(c Checkpointer) Option {
	return func(s *service) {
		s.checkpoints = c
	}
}

func WithAggregator(a fl.Aggregator) Option {
	return func(s *service) {
		s.aggregator = a
	}
}

// WithPeerID names this node so that it is never asked for its own weights.
func WithPeerID(id string) Option {
	return func(s *service) {
		s.selfID = id
	}
}

// WithModelBuilder replaces model.Build as the way InitializeModel turns a
// config into a model.
func WithModelBuilder(build func(model.Config) (model.Handle, error)) Option {
	return func(s *service) {
		s.build = build
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService resumes round numbering from the store. A round left active by
// a previous process is marked failed.
func NewService(ctx context.Context, rounds storage.RoundRepository, directory *peers.Directory, activity *peers.ActivityLog, bus *events.Bus, logger *slog.Logger, opts ...Option) (Service, error) {
	svc := &service{
		state:      Idle,
		cfg:        model.DefaultConfig(),
		rounds:     rounds,
		directory:  directory,
		activity:   activity,
		bus:        bus,
		aggregator: fl.NewFedAvgAggregator(),
		selfID:     fl.SelfID,
		build:      model.Build,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	latest, err := rounds.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest round: %w", err)
	}
	svc.current = latest

	if latest > 0 {
		if err := svc.recoverInterrupted(ctx, latest); err != nil {
			return nil, err
		}
	}

	return svc, nil
}

func (svc *service) recoverInterrupted(ctx context.Context, number uint64) error {
	r, err := svc.rounds.Get(ctx, number)
	if err != nil {
		return fmt.Errorf("failed to read round %d: %w", number, err)
	}
	if !r.Status.Active() {
		return nil
	}

	r.Error = "interrupted by restart"
	if err := r.Transition(round.Failed, svc.now()); err != nil {
		return err
	}
	if err := svc.rounds.Update(ctx, r); err != nil {
		return fmt.Errorf("failed to mark round %d failed: %w", number, err)
	}
	svc.state = Failed
	svc.lastError = r.Error
	svc.participants = r.Participants
	svc.logger.Warn("marked interrupted round as failed", slog.Uint64("round", number))

	return nil
}

func (svc *service) StartRound(ctx context.Context, participants []string) (RoundInfo, error) {
	ids := dedupe(participants)

	svc.mu.Lock()
	switch {
	case svc.closed:
		svc.mu.Unlock()

		return RoundInfo{}, ErrShutdown
	case svc.handle == nil:
		svc.mu.Unlock()

		return RoundInfo{}, pkgerrors.ErrModelNotInitialized
	case len(ids) == 0:
		svc.mu.Unlock()

		return RoundInfo{}, pkgerrors.ErrNoParticipants
	case svc.state.Active():
		svc.mu.Unlock()

		return RoundInfo{}, pkgerrors.ErrAlreadyTraining
	case svc.data == nil || svc.data.Len() == 0:
		svc.mu.Unlock()

		return RoundInfo{}, pkgerrors.ErrNoTrainingData
	}

	blob, err := tensor.Encode(svc.handle.Weights())
	if err != nil {
		svc.mu.Unlock()

		return RoundInfo{}, err
	}

	now := svc.now()
	r := round.Round{
		Number:       svc.current + 1,
		Status:       round.Pending,
		Participants: ids,
		Snapshot:     blob,
		UpdatedAt:    now,
	}
	if err := r.Transition(round.Training, now); err != nil {
		svc.mu.Unlock()

		return RoundInfo{}, err
	}
	if err := svc.rounds.Create(ctx, r); err != nil {
		svc.mu.Unlock()

		return RoundInfo{}, fmt.Errorf("failed to persist round %d: %w", r.Number, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	svc.current = r.Number
	svc.state = Training
	svc.participants = slices.Clone(ids)
	svc.lastError = ""
	svc.cancel = cancel
	handle, data := svc.handle, *svc.data
	svc.wg.Add(1)
	svc.mu.Unlock()

	RoundTotal.WithLabelValues("started").Inc()
	RoundActive.Set(1)
	svc.record(peers.RoundStarted, fmt.Sprintf("round %d started", r.Number), map[string]any{
		"round":        r.Number,
		"participants": ids,
	})
	svc.bus.Publish(events.New(events.RoundStarted, r.Number, map[string]any{"participants": ids}))

	go svc.run(runCtx, r, handle, data)

	return RoundInfo{RoundNumber: r.Number, Participants: slices.Clone(ids)}, nil
}

func (svc *service) Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (AggregateInfo, error) {
	svc.mu.Lock()
	if svc.handle == nil {
		svc.mu.Unlock()

		return AggregateInfo{}, pkgerrors.ErrModelNotInitialized
	}
	if svc.state.Active() {
		svc.mu.Unlock()

		return AggregateInfo{}, pkgerrors.ErrAlreadyTraining
	}

	res, err := svc.aggregator.Aggregate(svc.handle.Weights(), updates, includeSelf)
	if err != nil {
		svc.mu.Unlock()

		return AggregateInfo{}, err
	}
	if err := svc.handle.SetWeights(res.Weights); err != nil {
		svc.mu.Unlock()

		return AggregateInfo{}, err
	}
	current := svc.current
	svc.mu.Unlock()

	svc.aggregated("operator", current, res)

	return AggregateInfo{
		ParticipantCount: res.Candidates,
		CurrentRound:     current,
		Warnings:         res.Warnings,
	}, nil
}

func (svc *service) InitializeModel(_ context.Context, cfg model.Config) (model.Config, error) {
	svc.mu.Lock()
	if svc.state.Active() {
		svc.mu.Unlock()

		return model.Config{}, pkgerrors.ErrAlreadyTraining
	}
	handle, err := svc.build(cfg)
	if err != nil {
		svc.mu.Unlock()

		return model.Config{}, err
	}
	svc.handle = handle
	svc.cfg = handle.Config()
	built := svc.cfg
	svc.mu.Unlock()

	meta := map[string]any{
		"task_kind":   handle.Kind().String(),
		"input_shape": built.InputShape,
		"parameters":  handle.Weights().NumParams(),
	}
	svc.record(peers.ModelInitialized, fmt.Sprintf("%s model initialized", handle.Kind()), meta)
	svc.bus.Publish(events.New(events.ModelInitialized, 0, meta))

	return built, nil
}

func (svc *service) SetConfig(_ context.Context, patch model.ConfigPatch) (ConfigInfo, error) {
	svc.mu.Lock()
	queued := svc.state.Active()
	merged := svc.cfg.Apply(svc.pending.Merge(patch)).Normalize()
	if err := merged.Validate(); err != nil {
		svc.mu.Unlock()

		return ConfigInfo{}, err
	}
	if queued {
		svc.pending = svc.pending.Merge(patch)
	} else {
		svc.cfg = merged
		if svc.handle != nil {
			svc.handle.Tune(merged)
		}
	}
	svc.mu.Unlock()

	msg := "model config updated"
	if queued {
		msg = "model config update queued until the round ends"
	}
	svc.record(peers.ConfigUpdated, msg, map[string]any{"queued": queued})
	svc.bus.Publish(events.New(events.ConfigUpdated, 0, map[string]any{"queued": queued}))

	return ConfigInfo{Config: merged, Queued: queued}, nil
}

func (svc *service) Weights(_ context.Context) (tensor.Snapshot, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if svc.handle == nil {
		return nil, pkgerrors.ErrModelNotInitialized
	}

	return svc.handle.Weights(), nil
}

func (svc *service) SetWeights(_ context.Context, s tensor.Snapshot) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.installLocked(s)
}

func (svc *service) installLocked(s tensor.Snapshot) error {
	if svc.handle == nil {
		return pkgerrors.ErrModelNotInitialized
	}
	if svc.state.Active() {
		return pkgerrors.ErrAlreadyTraining
	}

	return svc.handle.SetWeights(s)
}

func (svc *service) UploadData(_ context.Context, data model.TrainingData) (DataInfo, error) {
	svc.mu.Lock()
	cfg := svc.cfg
	if svc.handle != nil {
		cfg = svc.handle.Config()
	}
	if err := data.Validate(cfg); err != nil {
		svc.mu.Unlock()

		return DataInfo{}, err
	}
	svc.data = &data
	svc.mu.Unlock()

	svc.record(peers.DataUploaded, fmt.Sprintf("%d training samples uploaded", data.Len()), map[string]any{"samples": data.Len()})

	return DataInfo{Samples: data.Len()}, nil
}

func (svc *service) RestoreCheckpoint(ctx context.Context, tag string) error {
	if svc.checkpoints == nil {
		return fmt.Errorf("checkpoint storage is not configured: %w", pkgerrors.ErrNotFound)
	}
	s, err := svc.checkpoints.Load(ctx, tag)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	return svc.installLocked(s)
}

func (svc *service) ListRounds(ctx context.Context, offset, limit uint64) (round.Page, error) {
	rounds, total, err := svc.rounds.List(ctx, offset, limit)
	if err != nil {
		return round.Page{}, err
	}

	return round.Page{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Rounds: rounds,
	}, nil
}

func (svc *service) GetRound(ctx context.Context, number uint64) (round.Round, error) {
	return svc.rounds.Get(ctx, number)
}

func (svc *service) ListPeers(ctx context.Context) ([]peer.Peer, error) {
	return svc.directory.List(ctx)
}

func (svc *service) Activity(_ context.Context, limit int) ([]peers.Activity, error) {
	return svc.activity.Recent(limit), nil
}

func (svc *service) Status(_ context.Context) (Status, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	st := Status{
		State:            svc.state,
		IsActive:         svc.state.Active(),
		CurrentRound:     svc.current,
		Participants:     slices.Clone(svc.participants),
		LastError:        svc.lastError,
		ModelInitialized: svc.handle != nil,
		ConfigQueued:     !svc.pending.Empty(),
	}
	if svc.handle != nil {
		kind := svc.handle.Kind()
		st.TaskKind = &kind
	}
	if svc.data != nil {
		st.TrainingSamples = svc.data.Len()
	}

	return st, nil
}

func (svc *service) CurrentRound() uint64 {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.current
}

func (svc *service) IsActive() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.state.Active()
}

func (svc *service) Participants() []string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return slices.Clone(svc.participants)
}

func (svc *service) Subscribe(ctx context.Context) <-chan events.Event {
	return svc.bus.Subscribe(ctx)
}

// Shutdown stops admitting rounds and cancels the one in progress, which
// then ends as failed. It waits for the training goroutine until ctx is
// done.
func (svc *service) Shutdown(ctx context.Context) error {
	svc.mu.Lock()
	svc.closed = true
	cancel := svc.cancel
	svc.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (svc *service) record(kind peers.ActivityKind, message string, metadata map[string]any) {
	svc.activity.Record(kind, "", message, metadata)
}

func (svc *service) aggregated(trigger string, roundNumber uint64, res fl.Result) {
	AggregationTotal.WithLabelValues(trigger).Inc()
	AggregationCandidates.Observe(float64(res.Candidates))
	for _, w := range res.Warnings {
		ShapeMismatchTotal.Inc()
		svc.logger.Warn("skipped mismatched layer during aggregation",
			slog.Uint64("round", roundNumber),
			slog.String("peer_id", w.PeerID),
			slog.Int("layer", w.Layer),
			slog.Any("got", w.Got),
			slog.Any("want", w.Want),
		)
	}

	meta := map[string]any{
		"round":        roundNumber,
		"candidates":   res.Candidates,
		"contributors": res.Contributors,
		"warnings":     len(res.Warnings),
		"trigger":      trigger,
	}
	svc.record(peers.WeightsAggregated, fmt.Sprintf("weights aggregated from %d snapshots", res.Candidates), meta)
	svc.bus.Publish(events.New(events.WeightsAggregated, roundNumber, meta))
}

// dedupe drops blank and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}

	return out
}
