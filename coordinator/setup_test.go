package coordinator_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

func scenarioConfig() model.Config {
	return model.Config{
		InputShape:   []int{4},
		NumClasses:   3,
		LearningRate: 0.01,
		BatchSize:    16,
		Epochs:       10,
	}
}

func scenarioData() model.TrainingData {
	data := model.TrainingData{}
	for i := range 18 {
		label := float64(i % 3)
		data.Features = append(data.Features, []float64{label, float64(i) / 18, 1 - label/2, 0.5})
		data.Labels = append(data.Labels, label)
	}

	return data
}

type fixture struct {
	svc      coordinator.Service
	repos    *storage.Repositories
	activity *peers.ActivityLog
	dir      *peers.Directory
}

func newFixture(t *testing.T, opts ...coordinator.Option) fixture {
	t.Helper()

	repos, err := storage.NewRepositories(storage.Config{Type: "memory"})
	require.NoError(t, err)

	return newFixtureWithRepos(t, repos, opts...)
}

func newFixtureWithRepos(t *testing.T, repos *storage.Repositories, opts ...coordinator.Option) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	activity := peers.NewActivityLog(50)
	dir := peers.NewDirectory(repos.Peers, activity)
	svc, err := coordinator.NewService(context.Background(), repos.Rounds, dir, activity, events.NewBus(64), logger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	return fixture{svc: svc, repos: repos, activity: activity, dir: dir}
}

// ready initializes the scenario model and uploads its data.
func (f fixture) ready(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.InitializeModel(ctx, scenarioConfig())
	require.NoError(t, err)
	_, err = f.svc.UploadData(ctx, scenarioData())
	require.NoError(t, err)
}

// waitTerminal blocks until the round reaches completed or failed.
func waitTerminal(t *testing.T, svc coordinator.Service, number uint64) round.Round {
	t.Helper()

	var r round.Round
	require.Eventually(t, func() bool {
		got, err := svc.GetRound(context.Background(), number)
		if err != nil {
			return false
		}
		r = got

		return got.Status.Terminal() && !svc.IsActive()
	}, 10*time.Second, 5*time.Millisecond, "round %d never reached a terminal state", number)

	return r
}

// blockingHandle wraps a real network and parks Fit until released.
type blockingHandle struct {
	model.Handle
	started chan struct{}
	release chan struct{}
}

func blockingBuilder(started, release chan struct{}) func(model.Config) (model.Handle, error) {
	return func(cfg model.Config) (model.Handle, error) {
		h, err := model.Build(cfg)
		if err != nil {
			return nil, err
		}

		return &blockingHandle{Handle: h, started: started, release: release}, nil
	}
}

func (b *blockingHandle) Fit(ctx context.Context, data model.TrainingData) (model.Metrics, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return b.Handle.Fit(ctx, data)
	case <-ctx.Done():
		return model.Metrics{}, ctx.Err()
	}
}

type panickingHandle struct {
	model.Handle
}

func (panickingHandle) Fit(context.Context, model.TrainingData) (model.Metrics, error) {
	panic("out of memory")
}

type staticSource struct {
	updates []fl.Update
	asked   chan []string
}

func (s *staticSource) Collect(_ context.Context, _ uint64, participants []string) ([]fl.Update, error) {
	if s.asked != nil {
		s.asked <- participants
	}

	return s.updates, nil
}

type memCheckpoints struct {
	saved map[string]tensor.Snapshot
}

func (m *memCheckpoints) Save(_ context.Context, n uint64, s tensor.Snapshot) (string, error) {
	tag := fl.CheckpointTag(n)
	m.saved[tag] = s.Clone()

	return tag, nil
}

func (m *memCheckpoints) Load(_ context.Context, tag string) (tensor.Snapshot, error) {
	s, ok := m.saved[tag]
	if !ok {
		return nil, storage.ErrRoundNotFound
	}

	return s.Clone(), nil
}

// failingRounds refuses to persist rounds entering the given status.
type failingRounds struct {
	storage.RoundRepository
	status round.Status
	err    error
}

func (f failingRounds) Update(ctx context.Context, r round.Round) error {
	if r.Status == f.status {
		return f.err
	}

	return f.RoundRepository.Update(ctx, r)
}
