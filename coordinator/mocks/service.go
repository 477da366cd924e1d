package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

var _ coordinator.Service = (*Service)(nil)

// Service is a mock implementation of coordinator.Service.
type Service struct {
	mock.Mock
}

func (m *Service) StartRound(ctx context.Context, participants []string) (coordinator.RoundInfo, error) {
	args := m.Called(ctx, participants)

	return args.Get(0).(coordinator.RoundInfo), args.Error(1)
}

func (m *Service) Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (coordinator.AggregateInfo, error) {
	args := m.Called(ctx, updates, includeSelf)

	return args.Get(0).(coordinator.AggregateInfo), args.Error(1)
}

func (m *Service) InitializeModel(ctx context.Context, cfg model.Config) (model.Config, error) {
	args := m.Called(ctx, cfg)

	return args.Get(0).(model.Config), args.Error(1)
}

func (m *Service) SetConfig(ctx context.Context, patch model.ConfigPatch) (coordinator.ConfigInfo, error) {
	args := m.Called(ctx, patch)

	return args.Get(0).(coordinator.ConfigInfo), args.Error(1)
}

func (m *Service) Weights(ctx context.Context) (tensor.Snapshot, error) {
	args := m.Called(ctx)

	s, _ := args.Get(0).(tensor.Snapshot)

	return s, args.Error(1)
}

func (m *Service) SetWeights(ctx context.Context, s tensor.Snapshot) error {
	args := m.Called(ctx, s)

	return args.Error(0)
}

func (m *Service) UploadData(ctx context.Context, data model.TrainingData) (coordinator.DataInfo, error) {
	args := m.Called(ctx, data)

	return args.Get(0).(coordinator.DataInfo), args.Error(1)
}

func (m *Service) RestoreCheckpoint(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)

	return args.Error(0)
}

func (m *Service) ListRounds(ctx context.Context, offset, limit uint64) (round.Page, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(round.Page), args.Error(1)
}

func (m *Service) GetRound(ctx context.Context, number uint64) (round.Round, error) {
	args := m.Called(ctx, number)

	return args.Get(0).(round.Round), args.Error(1)
}

func (m *Service) ListPeers(ctx context.Context) ([]peer.Peer, error) {
	args := m.Called(ctx)

	list, _ := args.Get(0).([]peer.Peer)

	return list, args.Error(1)
}

func (m *Service) Activity(ctx context.Context, limit int) ([]peers.Activity, error) {
	args := m.Called(ctx, limit)

	acts, _ := args.Get(0).([]peers.Activity)

	return acts, args.Error(1)
}

func (m *Service) Status(ctx context.Context) (coordinator.Status, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.Status), args.Error(1)
}

func (m *Service) CurrentRound() uint64 {
	args := m.Called()

	return args.Get(0).(uint64)
}

func (m *Service) IsActive() bool {
	args := m.Called()

	return args.Bool(0)
}

func (m *Service) Participants() []string {
	args := m.Called()

	ids, _ := args.Get(0).([]string)

	return ids
}

func (m *Service) Subscribe(ctx context.Context) <-chan events.Event {
	args := m.Called(ctx)

	return args.Get(0).(<-chan events.Event)
}

func (m *Service) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
