package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		desc  string
		n     int
		train int
		val   int
	}{
		{desc: "single sample trains only", n: 1, train: 1, val: 0},
		{desc: "two samples hold one out", n: 2, train: 1, val: 1},
		{desc: "eighteen samples", n: 18, train: 15, val: 3},
		{desc: "hundred samples", n: 100, train: 80, val: 20},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			train, val := split(tc.n, 7)
			assert.Len(t, train, tc.train)
			assert.Len(t, val, tc.val)

			seen := map[int]bool{}
			for _, i := range append(train, val...) {
				assert.False(t, seen[i])
				seen[i] = true
			}
			assert.Len(t, seen, tc.n)
		})
	}
}

func TestTrainingReducesLoss(t *testing.T) {
	cfg := Config{InputShape: []int{2}, NumClasses: 2, LearningRate: 0.5, BatchSize: 8, Epochs: 200, HiddenUnits: []int{8}, Seed: 3}
	h, err := Build(cfg)
	require.NoError(t, err)
	n := h.(*Network)

	data := TrainingData{}
	for i := range 40 {
		x := float64(i%20)/20 - 0.5
		label := 0.0
		if i >= 20 {
			label = 1
			x += 1
		}
		data.Features = append(data.Features, []float64{x, -x})
		data.Labels = append(data.Labels, label)
	}

	all := make([]int, data.Len())
	for i := range all {
		all[i] = i
	}
	x, y := batch(data, n.Config(), all)
	initial := evaluate(n.cloneLayers(), x, y, n.Config())

	_, err = n.Fit(context.Background(), data)
	require.NoError(t, err)

	trained := evaluate(n.cloneLayers(), x, y, n.Config())
	assert.Less(t, trained.Loss, initial.Loss)
	assert.GreaterOrEqual(t, *trained.Accuracy, 0.9)
}
