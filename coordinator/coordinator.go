// Package coordinator drives the federated training round lifecycle of a
// node: admission, local training, aggregation of peer weights and round
// bookkeeping.
package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/round"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

type Service interface {
	// StartRound admits a new round and trains in the background. Checks run
	// in a fixed order and leave state untouched on failure.
	StartRound(ctx context.Context, participants []string) (RoundInfo, error)
	// Aggregate merges the given snapshots into the local model outside of
	// a round.
	Aggregate(ctx context.Context, updates []fl.Update, includeSelf bool) (AggregateInfo, error)

	InitializeModel(ctx context.Context, cfg model.Config) (model.Config, error)
	// SetConfig merges patch into the live config. While a round is active
	// the patch is queued until the round ends.
	SetConfig(ctx context.Context, patch model.ConfigPatch) (ConfigInfo, error)
	Weights(ctx context.Context) (tensor.Snapshot, error)
	SetWeights(ctx context.Context, s tensor.Snapshot) error
	UploadData(ctx context.Context, data model.TrainingData) (DataInfo, error)
	RestoreCheckpoint(ctx context.Context, tag string) error

	ListRounds(ctx context.Context, offset, limit uint64) (round.Page, error)
	GetRound(ctx context.Context, number uint64) (round.Round, error)
	ListPeers(ctx context.Context) ([]peer.Peer, error)
	Activity(ctx context.Context, limit int) ([]peers.Activity, error)
	Status(ctx context.Context) (Status, error)

	CurrentRound() uint64
	IsActive() bool
	Participants() []string

	Subscribe(ctx context.Context) <-chan events.Event
	Shutdown(ctx context.Context) error
}

// SnapshotSource hands over the latest weights received from the given
// participants for a round. It is best effort: missing peers are simply
// absent from the result.
type SnapshotSource interface {
	Collect(ctx context.Context, roundNumber uint64, participants []string) ([]fl.Update, error)
}

// WeightPublisher shares the local weights with peers after training.
type WeightPublisher interface {
	PublishWeights(ctx context.Context, roundNumber uint64, s tensor.Snapshot) error
}

// Checkpointer stores merged snapshots of completed rounds.
type Checkpointer interface {
	Save(ctx context.Context, roundNumber uint64, s tensor.Snapshot) (string, error)
	Load(ctx context.Context, tag string) (tensor.Snapshot, error)
}

type State uint8

const (
	Idle State = iota
	Training
	Aggregating
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Training:
		return "training"
	case Aggregating:
		return "aggregating"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "idle":
		*s = Idle
	case "training":
		*s = Training
	case "aggregating":
		*s = Aggregating
	case "completed":
		*s = Completed
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("unknown coordinator state %q", string(text))
	}

	return nil
}

// Active reports whether the state holds a round in progress. Completed and
// Failed admit a new round just like Idle.
func (s State) Active() bool {
	return s == Training || s == Aggregating
}

type RoundInfo struct {
	RoundNumber  uint64   `json:"round_number"`
	Participants []string `json:"participants"`
}

type AggregateInfo struct {
	ParticipantCount int                `json:"participant_count"`
	CurrentRound     uint64             `json:"current_round"`
	Warnings         []fl.ShapeMismatch `json:"warnings,omitempty"`
}

type ConfigInfo struct {
	Config model.Config `json:"config"`
	Queued bool         `json:"queued"`
}

type DataInfo struct {
	Samples int `json:"samples"`
}

type Status struct {
	State        State    `json:"state"`
	IsActive     bool     `json:"is_active"`
	CurrentRound uint64   `json:"current_round"`
	Participants []string `json:"participants"`
	// LastError is the reason the most recent round failed.
	LastError        string          `json:"last_error,omitempty"`
	ModelInitialized bool            `json:"model_initialized"`
	TaskKind         *model.TaskKind `json:"task_kind,omitempty"`
	TrainingSamples  int             `json:"training_samples"`
	ConfigQueued     bool            `json:"config_queued"`
}
