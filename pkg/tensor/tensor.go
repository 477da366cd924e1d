// Package tensor holds the dense weight representation exchanged between
// peers: an ordered list of layers, each a shape plus row-major data.
package tensor

import (
	"fmt"
	"slices"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

type Tensor struct {
	Shape []int     `json:"shape" cbor:"1,keyasint"`
	Data  []float64 `json:"data"  cbor:"2,keyasint"`
}

// Snapshot is the full set of a model's weights, layer order preserved.
type Snapshot []Tensor

func New(shape ...int) Tensor {
	return Tensor{
		Shape: slices.Clone(shape),
		Data:  make([]float64, Size(shape)),
	}
}

// Size returns the element count of a shape. An empty shape is a scalar.
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

func (t Tensor) SameShape(other Tensor) bool {
	return slices.Equal(t.Shape, other.Shape)
}

func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape: slices.Clone(t.Shape),
		Data:  slices.Clone(t.Data),
	}
}

// Validate checks that the data length agrees with the shape.
func (t Tensor) Validate() error {
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive dimension in %v", pkgerrors.ErrShapeMismatch, t.Shape)
		}
	}
	if len(t.Data) != Size(t.Shape) {
		return fmt.Errorf("%w: shape %v holds %d values, got %d", pkgerrors.ErrShapeMismatch, t.Shape, Size(t.Shape), len(t.Data))
	}

	return nil
}

func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}

	return out
}

func (s Snapshot) Shapes() [][]int {
	shapes := make([][]int, len(s))
	for i := range s {
		shapes[i] = slices.Clone(s[i].Shape)
	}

	return shapes
}

// Compatible reports whether every layer of s has the same shape as the
// corresponding layer of other and both have the same layer count.
func (s Snapshot) Compatible(other Snapshot) error {
	if len(s) != len(other) {
		return fmt.Errorf("%w: expected %d layers, got %d", pkgerrors.ErrShapeMismatch, len(other), len(s))
	}
	for i := range s {
		if err := s[i].Validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if !s[i].SameShape(other[i]) {
			return fmt.Errorf("%w: layer %d has shape %v, expected %v", pkgerrors.ErrShapeMismatch, i, s[i].Shape, other[i].Shape)
		}
	}

	return nil
}

func (s Snapshot) NumParams() int {
	n := 0
	for i := range s {
		n += len(s[i].Data)
	}

	return n
}
