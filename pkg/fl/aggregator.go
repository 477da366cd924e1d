package fl

import (
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

// FedAvgAggregator averages each layer independently with equal weight per
// candidate. Sample counts are not taken into account.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(local tensor.Snapshot, updates []Update, includeSelf bool) (Result, error) {
	candidates := make([]Update, 0, len(updates)+1)
	candidates = append(candidates, updates...)
	if includeSelf {
		candidates = append(candidates, Update{PeerID: SelfID, Weights: local})
	}
	if len(candidates) == 0 {
		return Result{}, pkgerrors.ErrAggregationEmptyInput
	}

	res := Result{
		Weights:      make(tensor.Snapshot, len(local)),
		Candidates:   len(candidates),
		Contributors: make([]int, len(local)),
	}

	for i, ref := range local {
		acc := tensor.New(ref.Shape...)
		count := 0

		for _, c := range candidates {
			if i >= len(c.Weights) {
				res.Warnings = append(res.Warnings, ShapeMismatch{PeerID: c.PeerID, Layer: i, Want: ref.Shape})

				continue
			}
			layer := c.Weights[i]
			if !layer.SameShape(ref) || layer.Validate() != nil {
				res.Warnings = append(res.Warnings, ShapeMismatch{PeerID: c.PeerID, Layer: i, Got: layer.Shape, Want: ref.Shape})

				continue
			}
			for j, v := range layer.Data {
				acc.Data[j] += v
			}
			count++
		}

		res.Contributors[i] = count
		if count == 0 {
			res.Weights[i] = ref.Clone()

			continue
		}

		n := float64(count)
		for j := range acc.Data {
			acc.Data[j] /= n
		}
		res.Weights[i] = acc
	}

	return res, nil
}
