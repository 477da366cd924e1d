// Package model implements the trainable model a node federates: a small
// fully connected network on gonum dense matrices.
package model

import (
	"context"

	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

// Metrics are the final-epoch results of a training run, measured on the
// validation split when there is one.
type Metrics struct {
	Loss       float64  `json:"loss"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	MAE        *float64 `json:"mae,omitempty"`
	Samples    int      `json:"samples"`
	ValSamples int      `json:"val_samples"`
}

// Handle is the opaque model the coordinator drives.
type Handle interface {
	Config() Config
	Kind() TaskKind
	// Weights returns a copy of every layer, kernels before biases.
	Weights() tensor.Snapshot
	// SetWeights installs all layers at once after a shape check.
	SetWeights(s tensor.Snapshot) error
	// Tune takes the training hyperparameters of cfg (learning rate, batch
	// size, epochs, seed) and leaves the architecture as built.
	Tune(cfg Config)
	Fit(ctx context.Context, data TrainingData) (Metrics, error)
}

// Build validates cfg and constructs the network for its task kind.
func Build(cfg Config) (Handle, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind() {
	case Image:
		return NewImageNetwork(cfg), nil
	case Sequence:
		return NewSequenceNetwork(cfg), nil
	default:
		return NewTabularNetwork(cfg), nil
	}
}
