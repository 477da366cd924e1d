package model

import (
	"fmt"
	"math"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

// TrainingData is a local dataset. Labels hold class indices for
// classification or scalar targets for single-output regression. Targets
// replaces Labels for multi-output regression.
type TrainingData struct {
	Features [][]float64 `json:"features"`
	Labels   []float64   `json:"labels,omitempty"`
	Targets  [][]float64 `json:"targets,omitempty"`
}

func (d TrainingData) Len() int {
	return len(d.Features)
}

// Validate checks the dataset against a config.
func (d TrainingData) Validate(cfg Config) error {
	n := len(d.Features)
	if n == 0 {
		return pkgerrors.ErrNoTrainingData
	}

	width := cfg.InputSize()
	for i, f := range d.Features {
		if len(f) != width {
			return fmt.Errorf("%w: sample %d has %d features, expected %d", pkgerrors.ErrInvalidData, i, len(f), width)
		}
	}

	if cfg.Classification() {
		if len(d.Labels) != n {
			return fmt.Errorf("%w: %d labels for %d samples", pkgerrors.ErrInvalidData, len(d.Labels), n)
		}
		for i, l := range d.Labels {
			if l != math.Trunc(l) || l < 0 || int(l) >= cfg.NumClasses {
				return fmt.Errorf("%w: label %v of sample %d outside [0, %d)", pkgerrors.ErrInvalidData, l, i, cfg.NumClasses)
			}
		}

		return nil
	}

	out := cfg.OutputSize()
	if d.Targets != nil {
		if len(d.Targets) != n {
			return fmt.Errorf("%w: %d targets for %d samples", pkgerrors.ErrInvalidData, len(d.Targets), n)
		}
		for i, t := range d.Targets {
			if len(t) != out {
				return fmt.Errorf("%w: target %d has width %d, expected %d", pkgerrors.ErrInvalidData, i, len(t), out)
			}
		}

		return nil
	}
	if out != 1 {
		return fmt.Errorf("%w: %d outputs need targets, not labels", pkgerrors.ErrInvalidData, out)
	}
	if len(d.Labels) != n {
		return fmt.Errorf("%w: %d labels for %d samples", pkgerrors.ErrInvalidData, len(d.Labels), n)
	}

	return nil
}

// target returns the expected output row for sample i.
func (d TrainingData) target(cfg Config, i int) []float64 {
	if cfg.Classification() {
		row := make([]float64, cfg.NumClasses)
		row[int(d.Labels[i])] = 1

		return row
	}
	if d.Targets != nil {
		return d.Targets[i]
	}

	return []float64{d.Labels[i]}
}
