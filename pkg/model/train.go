package model

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	validationFraction = 0.2
	probFloor          = 1e-12
)

// Fit trains on a shuffled 80% of data with mini-batch SGD and reports
// metrics on the held-out 20%. Weights are swapped in once training ends,
// so readers never observe a half-trained model.
func (n *Network) Fit(ctx context.Context, data TrainingData) (Metrics, error) {
	cfg := n.Config()
	if err := data.Validate(cfg); err != nil {
		return Metrics{}, err
	}

	trainIdx, valIdx := split(data.Len(), cfg.Seed)
	layers := n.cloneLayers()
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed)+1, uint64(cfg.Seed)))

	for range cfg.Epochs {
		rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return Metrics{}, err
			}
			end := min(start+cfg.BatchSize, len(trainIdx))
			x, y := batch(data, cfg, trainIdx[start:end])
			step(layers, x, y, cfg)
		}
	}

	evalIdx := valIdx
	if len(evalIdx) == 0 {
		evalIdx = trainIdx
	}
	x, y := batch(data, cfg, evalIdx)
	m := evaluate(layers, x, y, cfg)
	m.Samples = len(trainIdx)
	m.ValSamples = len(valIdx)

	n.install(layers)

	return m, nil
}

// split shuffles sample indices and holds out a validation fifth, at least
// one sample whenever there are two or more.
func split(n int, seed int64) (train, val []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nVal := int(float64(n) * validationFraction)
	if nVal == 0 && n >= 2 {
		nVal = 1
	}

	return idx[nVal:], idx[:nVal]
}

func batch(data TrainingData, cfg Config, idx []int) (*mat.Dense, *mat.Dense) {
	x := mat.NewDense(len(idx), cfg.InputSize(), nil)
	y := mat.NewDense(len(idx), cfg.OutputSize(), nil)
	for r, i := range idx {
		x.SetRow(r, data.Features[i])
		y.SetRow(r, data.target(cfg, i))
	}

	return x, y
}

// forward returns the pre-activations and activations of every layer,
// activations[0] being the input.
func forward(layers []dense, x *mat.Dense, classify bool) (pre, acts []*mat.Dense) {
	acts = append(acts, x)
	for i, l := range layers {
		z := &mat.Dense{}
		z.Mul(acts[i], l.w)
		z.Apply(func(_, c int, v float64) float64 { return v + l.b[c] }, z)
		pre = append(pre, z)

		a := &mat.Dense{}
		switch {
		case i < len(layers)-1:
			a.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, z)
		case classify:
			a = softmax(z)
		default:
			a.CloneFrom(z)
		}
		acts = append(acts, a)
	}

	return pre, acts
}

func softmax(z *mat.Dense) *mat.Dense {
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := range rows {
		row := z.RawRowView(r)
		peak := math.Inf(-1)
		for _, v := range row {
			peak = math.Max(peak, v)
		}
		sum := 0.0
		for c, v := range row {
			e := math.Exp(v - peak)
			out.Set(r, c, e)
			sum += e
		}
		for c := range cols {
			out.Set(r, c, out.At(r, c)/sum)
		}
	}

	return out
}

// step runs one SGD update over a batch. Softmax with cross-entropy and a
// linear output with MSE both reduce to a simple output delta.
func step(layers []dense, x, y *mat.Dense, cfg Config) {
	classify := cfg.Classification()
	pre, acts := forward(layers, x, classify)

	rows, cols := y.Dims()
	scale := 1 / float64(rows)
	if !classify {
		scale = 2 / float64(rows*cols)
	}
	delta := &mat.Dense{}
	delta.Sub(acts[len(acts)-1], y)
	delta.Scale(scale, delta)

	for i := len(layers) - 1; i >= 0; i-- {
		grad := &mat.Dense{}
		grad.Mul(acts[i].T(), delta)

		var next *mat.Dense
		if i > 0 {
			back := &mat.Dense{}
			back.Mul(delta, layers[i].w.T())
			next = &mat.Dense{}
			next.Apply(func(r, c int, v float64) float64 {
				if pre[i-1].At(r, c) > 0 {
					return v
				}

				return 0
			}, back)
		}

		w := layers[i].w.RawMatrix()
		g := grad.RawMatrix()
		for r := range w.Rows {
			for c := range w.Cols {
				w.Data[r*w.Stride+c] -= cfg.LearningRate * g.Data[r*g.Stride+c]
			}
		}
		dr, dc := delta.Dims()
		for c := range dc {
			sum := 0.0
			for r := range dr {
				sum += delta.At(r, c)
			}
			layers[i].b[c] -= cfg.LearningRate * sum
		}

		delta = next
	}
}

func evaluate(layers []dense, x, y *mat.Dense, cfg Config) Metrics {
	classify := cfg.Classification()
	_, acts := forward(layers, x, classify)
	out := acts[len(acts)-1]
	rows, cols := y.Dims()

	if classify {
		loss, correct := 0.0, 0
		for r := range rows {
			label := argmax(y.RawRowView(r))
			loss -= math.Log(math.Max(out.At(r, label), probFloor))
			if argmax(out.RawRowView(r)) == label {
				correct++
			}
		}
		loss /= float64(rows)
		acc := float64(correct) / float64(rows)

		return Metrics{Loss: loss, Accuracy: &acc}
	}

	sq, abs := 0.0, 0.0
	for r := range rows {
		for c := range cols {
			d := out.At(r, c) - y.At(r, c)
			sq += d * d
			abs += math.Abs(d)
		}
	}
	total := float64(rows * cols)
	mae := abs / total

	return Metrics{Loss: sq / total, MAE: &mae}
}

func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}

	return best
}
