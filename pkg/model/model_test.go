package model_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
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

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		desc   string
		mutate func(c *model.Config)
		err    error
	}{
		{desc: "valid classification config", mutate: func(*model.Config) {}, err: nil},
		{desc: "missing input shape", mutate: func(c *model.Config) { c.InputShape = nil }, err: pkgerrors.ErrInvalidConfig},
		{desc: "rank four input", mutate: func(c *model.Config) { c.InputShape = []int{1, 2, 3, 4} }, err: pkgerrors.ErrInvalidConfig},
		{desc: "zero dimension", mutate: func(c *model.Config) { c.InputShape = []int{0} }, err: pkgerrors.ErrInvalidConfig},
		{desc: "non-positive learning rate", mutate: func(c *model.Config) { c.LearningRate = 0 }, err: pkgerrors.ErrInvalidConfig},
		{desc: "zero batch size", mutate: func(c *model.Config) { c.BatchSize = 0 }, err: pkgerrors.ErrInvalidConfig},
		{desc: "zero epochs", mutate: func(c *model.Config) { c.Epochs = 0 }, err: pkgerrors.ErrInvalidConfig},
		{desc: "output shape disagrees with classes", mutate: func(c *model.Config) { c.OutputShape = []int{2} }, err: pkgerrors.ErrInvalidConfig},
		{desc: "negative hidden units", mutate: func(c *model.Config) { c.HiddenUnits = []int{-1} }, err: pkgerrors.ErrInvalidConfig},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := scenarioConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.err == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tc.err, fmt.Sprintf("%s: expected error %v, got %v", tc.desc, tc.err, err))
		})
	}
}

func TestConfigKind(t *testing.T) {
	cases := []struct {
		desc  string
		shape []int
		kind  model.TaskKind
	}{
		{desc: "vector input is tabular", shape: []int{4}, kind: model.Tabular},
		{desc: "matrix input is sequence", shape: []int{10, 3}, kind: model.Sequence},
		{desc: "rank three input is image", shape: []int{8, 8, 1}, kind: model.Image},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := scenarioConfig()
			cfg.InputShape = tc.shape
			assert.Equal(t, tc.kind, cfg.Kind())

			h, err := model.Build(cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, h.Kind())
			assert.Equal(t, tensor.Size(tc.shape), h.Weights()[0].Shape[0])
		})
	}
}

func TestConfigApply(t *testing.T) {
	lr := 0.5
	classes := 1
	cfg := scenarioConfig().Normalize()

	patched := cfg.Apply(model.ConfigPatch{LearningRate: &lr})
	assert.Equal(t, 0.5, patched.LearningRate)
	assert.Equal(t, cfg.Epochs, patched.Epochs)
	assert.Equal(t, 0.01, cfg.LearningRate)

	regression := cfg.Apply(model.ConfigPatch{NumClasses: &classes}).Normalize()
	assert.False(t, regression.Classification())
	assert.Equal(t, []int{1}, regression.OutputShape)
	assert.NoError(t, regression.Validate())

	merged := model.ConfigPatch{LearningRate: &lr}.Merge(model.ConfigPatch{NumClasses: &classes})
	assert.Equal(t, &lr, merged.LearningRate)
	assert.Equal(t, &classes, merged.NumClasses)
	assert.True(t, model.ConfigPatch{}.Empty())
	assert.False(t, merged.Empty())
}

func TestWeightsLayout(t *testing.T) {
	cfg := scenarioConfig()
	cfg.HiddenUnits = []int{5}
	h, err := model.Build(cfg)
	require.NoError(t, err)

	w := h.Weights()
	assert.Equal(t, [][]int{{4, 5}, {5}, {5, 3}, {3}}, w.Shapes())

	w[0].Data[0] = 1000
	assert.NotEqual(t, 1000.0, h.Weights()[0].Data[0])
}

func TestSetWeights(t *testing.T) {
	h, err := model.Build(scenarioConfig())
	require.NoError(t, err)

	replacement := h.Weights()
	for i := range replacement {
		for j := range replacement[i].Data {
			replacement[i].Data[j] = 0.25
		}
	}
	require.NoError(t, h.SetWeights(replacement))
	assert.Equal(t, replacement, h.Weights())

	bad := h.Weights()
	bad[0] = tensor.New(3, 3)
	err = h.SetWeights(bad)
	assert.ErrorIs(t, err, pkgerrors.ErrShapeMismatch)
	assert.Equal(t, replacement, h.Weights())

	err = h.SetWeights(replacement[:1])
	assert.ErrorIs(t, err, pkgerrors.ErrShapeMismatch)
}

func TestFitClassification(t *testing.T) {
	h, err := model.Build(scenarioConfig())
	require.NoError(t, err)
	before := h.Weights()

	m, err := h.Fit(context.Background(), scenarioData())
	require.NoError(t, err)
	require.NotNil(t, m.Accuracy)
	assert.GreaterOrEqual(t, *m.Accuracy, 0.0)
	assert.LessOrEqual(t, *m.Accuracy, 1.0)
	assert.GreaterOrEqual(t, m.Loss, 0.0)
	assert.Nil(t, m.MAE)
	assert.Equal(t, 15, m.Samples)
	assert.Equal(t, 3, m.ValSamples)
	assert.NotEqual(t, before, h.Weights())
}

func TestFitRegression(t *testing.T) {
	cfg := model.Config{InputShape: []int{2}, LearningRate: 0.05, BatchSize: 4, Epochs: 20}
	h, err := model.Build(cfg)
	require.NoError(t, err)

	data := model.TrainingData{}
	for i := range 10 {
		x := float64(i) / 10
		data.Features = append(data.Features, []float64{x, 1 - x})
		data.Labels = append(data.Labels, 2*x)
	}

	m, err := h.Fit(context.Background(), data)
	require.NoError(t, err)
	assert.Nil(t, m.Accuracy)
	require.NotNil(t, m.MAE)
	assert.GreaterOrEqual(t, *m.MAE, 0.0)
	assert.GreaterOrEqual(t, m.Loss, 0.0)
	assert.Equal(t, 2, m.ValSamples)
}

func TestFitRejectsBadData(t *testing.T) {
	cases := []struct {
		desc string
		data model.TrainingData
		err  error
	}{
		{
			desc: "no samples",
			data: model.TrainingData{},
			err:  pkgerrors.ErrNoTrainingData,
		},
		{
			desc: "wrong feature width",
			data: model.TrainingData{Features: [][]float64{{1, 2}}, Labels: []float64{0}},
			err:  pkgerrors.ErrInvalidData,
		},
		{
			desc: "label out of range",
			data: model.TrainingData{Features: [][]float64{{1, 2, 3, 4}}, Labels: []float64{3}},
			err:  pkgerrors.ErrInvalidData,
		},
		{
			desc: "fractional label",
			data: model.TrainingData{Features: [][]float64{{1, 2, 3, 4}}, Labels: []float64{0.5}},
			err:  pkgerrors.ErrInvalidData,
		},
		{
			desc: "label count mismatch",
			data: model.TrainingData{Features: [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4}}, Labels: []float64{1}},
			err:  pkgerrors.ErrInvalidData,
		},
	}

	h, err := model.Build(scenarioConfig())
	require.NoError(t, err)

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := h.Fit(context.Background(), tc.data)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestFitHonoursCancellation(t *testing.T) {
	h, err := model.Build(scenarioConfig())
	require.NoError(t, err)
	before := h.Weights()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Fit(ctx, scenarioData())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, h.Weights())
}

func TestTuneKeepsArchitecture(t *testing.T) {
	h, err := model.Build(scenarioConfig())
	require.NoError(t, err)
	before := h.Weights().Shapes()

	tuned := scenarioConfig()
	tuned.LearningRate = 0.5
	tuned.Epochs = 2
	tuned.BatchSize = 4
	tuned.InputShape = []int{99}
	h.Tune(tuned)

	cfg := h.Config()
	assert.Equal(t, 0.5, cfg.LearningRate)
	assert.Equal(t, 2, cfg.Epochs)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, []int{4}, cfg.InputShape, "architecture must not change")
	assert.Equal(t, before, h.Weights().Shapes())
}
