package model

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
	"gonum.org/v1/gonum/mat"
)

var (
	defImageHidden    = []int{64, 32}
	defSequenceHidden = []int{32}
	defTabularHidden  = []int{16}
)

type dense struct {
	w *mat.Dense // in x out
	b []float64
}

func (d dense) clone() dense {
	return dense{w: mat.DenseCopyOf(d.w), b: slices.Clone(d.b)}
}

type Network struct {
	mu     sync.RWMutex
	cfg    Config
	kind   TaskKind
	layers []dense
}

var _ Handle = (*Network)(nil)

// NewImageNetwork builds a network over flattened rank-3 inputs
// (height, width, channels).
func NewImageNetwork(cfg Config) *Network {
	return newNetwork(cfg, Image, defImageHidden)
}

// NewSequenceNetwork builds a network over flattened rank-2 inputs
// (steps, features).
func NewSequenceNetwork(cfg Config) *Network {
	return newNetwork(cfg, Sequence, defSequenceHidden)
}

func NewTabularNetwork(cfg Config) *Network {
	return newNetwork(cfg, Tabular, defTabularHidden)
}

func newNetwork(cfg Config, kind TaskKind, defHidden []int) *Network {
	cfg = cfg.Normalize()
	if len(cfg.HiddenUnits) == 0 {
		cfg.HiddenUnits = slices.Clone(defHidden)
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))

	sizes := make([]int, 0, len(cfg.HiddenUnits)+2)
	sizes = append(sizes, cfg.InputSize())
	sizes = append(sizes, cfg.HiddenUnits...)
	sizes = append(sizes, cfg.OutputSize())

	layers := make([]dense, len(sizes)-1)
	for i := range layers {
		in, out := sizes[i], sizes[i+1]
		// Glorot uniform
		limit := math.Sqrt(6 / float64(in+out))
		data := make([]float64, in*out)
		for j := range data {
			data[j] = (rng.Float64()*2 - 1) * limit
		}
		layers[i] = dense{w: mat.NewDense(in, out, data), b: make([]float64, out)}
	}

	return &Network{cfg: cfg, kind: kind, layers: layers}
}

func (n *Network) Config() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.cfg.Normalize()
}

func (n *Network) Tune(cfg Config) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.cfg.LearningRate = cfg.LearningRate
	n.cfg.BatchSize = cfg.BatchSize
	n.cfg.Epochs = cfg.Epochs
	n.cfg.Seed = cfg.Seed
}

func (n *Network) Kind() TaskKind {
	return n.kind
}

func (n *Network) Weights() tensor.Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return snapshotOf(n.layers)
}

func (n *Network) SetWeights(s tensor.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := s.Compatible(snapshotOf(n.layers)); err != nil {
		return err
	}

	layers := make([]dense, len(n.layers))
	for i := range layers {
		k, b := s[2*i], s[2*i+1]
		layers[i] = dense{
			w: mat.NewDense(k.Shape[0], k.Shape[1], slices.Clone(k.Data)),
			b: slices.Clone(b.Data),
		}
	}
	n.layers = layers

	return nil
}

func (n *Network) cloneLayers() []dense {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]dense, len(n.layers))
	for i := range n.layers {
		out[i] = n.layers[i].clone()
	}

	return out
}

func (n *Network) install(layers []dense) {
	n.mu.Lock()
	n.layers = layers
	n.mu.Unlock()
}

func snapshotOf(layers []dense) tensor.Snapshot {
	s := make(tensor.Snapshot, 0, 2*len(layers))
	for _, l := range layers {
		in, out := l.w.Dims()
		data := make([]float64, 0, in*out)
		for r := range in {
			data = append(data, mat.Row(nil, r, l.w)...)
		}
		s = append(s,
			tensor.Tensor{Shape: []int{in, out}, Data: data},
			tensor.Tensor{Shape: []int{out}, Data: slices.Clone(l.b)},
		)
	}

	return s
}
