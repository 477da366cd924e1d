package model

import (
	"fmt"
	"slices"
	"strings"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

// TaskKind selects the network family for a config. It is derived from the
// rank of the input shape when a config is validated.
type TaskKind uint8

const (
	Tabular TaskKind = iota
	Sequence
	Image
)

func (k TaskKind) String() string {
	switch k {
	case Tabular:
		return "tabular"
	case Sequence:
		return "sequence"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

func (k TaskKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TaskKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "tabular":
		*k = Tabular
	case "sequence":
		*k = Sequence
	case "image":
		*k = Image
	default:
		return fmt.Errorf("unknown task kind %q", string(text))
	}

	return nil
}

type Config struct {
	InputShape   []int   `json:"input_shape"             toml:"input_shape"`
	OutputShape  []int   `json:"output_shape,omitempty"  toml:"output_shape"`
	NumClasses   int     `json:"num_classes,omitempty"   toml:"num_classes"`
	LearningRate float64 `json:"learning_rate"           toml:"learning_rate"`
	BatchSize    int     `json:"batch_size"              toml:"batch_size"`
	Epochs       int     `json:"epochs"                  toml:"epochs"`
	HiddenUnits  []int   `json:"hidden_units,omitempty"  toml:"hidden_units"`
	Seed         int64   `json:"seed,omitempty"          toml:"seed"`
}

// DefaultConfig mirrors the defaults the node starts with before any
// config is pushed to it.
func DefaultConfig() Config {
	return Config{
		InputShape:   []int{784},
		NumClasses:   10,
		LearningRate: 0.01,
		BatchSize:    32,
		Epochs:       5,
	}
}

func (c Config) Classification() bool {
	return c.NumClasses > 1
}

func (c Config) Kind() TaskKind {
	switch len(c.InputShape) {
	case 3:
		return Image
	case 2:
		return Sequence
	default:
		return Tabular
	}
}

func (c Config) InputSize() int {
	return tensor.Size(c.InputShape)
}

// OutputSize is the width of the network output: the class count for
// classification, the output shape otherwise.
func (c Config) OutputSize() int {
	if c.Classification() {
		return c.NumClasses
	}
	if len(c.OutputShape) == 0 {
		return 1
	}

	return tensor.Size(c.OutputShape)
}

// Normalize fills the output shape when it can be derived.
func (c Config) Normalize() Config {
	c.InputShape = slices.Clone(c.InputShape)
	c.HiddenUnits = slices.Clone(c.HiddenUnits)
	switch {
	case len(c.OutputShape) > 0:
		c.OutputShape = slices.Clone(c.OutputShape)
	case c.Classification():
		c.OutputShape = []int{c.NumClasses}
	default:
		c.OutputShape = []int{1}
	}

	return c
}

func (c Config) Validate() error {
	if len(c.InputShape) == 0 || len(c.InputShape) > 3 {
		return fmt.Errorf("%w: input shape must have rank 1 to 3, got %v", pkgerrors.ErrInvalidConfig, c.InputShape)
	}
	if !positive(c.InputShape) {
		return fmt.Errorf("%w: input shape %v has non-positive dimensions", pkgerrors.ErrInvalidConfig, c.InputShape)
	}
	if len(c.OutputShape) > 0 && !positive(c.OutputShape) {
		return fmt.Errorf("%w: output shape %v has non-positive dimensions", pkgerrors.ErrInvalidConfig, c.OutputShape)
	}
	if c.NumClasses < 0 {
		return fmt.Errorf("%w: num classes must not be negative", pkgerrors.ErrInvalidConfig)
	}
	if c.Classification() && len(c.OutputShape) > 0 && tensor.Size(c.OutputShape) != c.NumClasses {
		return fmt.Errorf("%w: output shape %v does not hold %d classes", pkgerrors.ErrInvalidConfig, c.OutputShape, c.NumClasses)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", pkgerrors.ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", pkgerrors.ErrInvalidConfig)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive", pkgerrors.ErrInvalidConfig)
	}
	if !positive(c.HiddenUnits) {
		return fmt.Errorf("%w: hidden units %v must be positive", pkgerrors.ErrInvalidConfig, c.HiddenUnits)
	}

	return nil
}

func positive(dims []int) bool {
	for _, d := range dims {
		if d <= 0 {
			return false
		}
	}

	return true
}

// ConfigPatch carries a partial config update. Nil fields are left as is.
type ConfigPatch struct {
	InputShape   []int    `json:"input_shape,omitempty"`
	OutputShape  []int    `json:"output_shape,omitempty"`
	NumClasses   *int     `json:"num_classes,omitempty"`
	LearningRate *float64 `json:"learning_rate,omitempty"`
	BatchSize    *int     `json:"batch_size,omitempty"`
	Epochs       *int     `json:"epochs,omitempty"`
	HiddenUnits  []int    `json:"hidden_units,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

func (p ConfigPatch) Empty() bool {
	return p.InputShape == nil && p.OutputShape == nil && p.NumClasses == nil &&
		p.LearningRate == nil && p.BatchSize == nil && p.Epochs == nil &&
		p.HiddenUnits == nil && p.Seed == nil
}

// Merge layers q over p, q winning where both set a field.
func (p ConfigPatch) Merge(q ConfigPatch) ConfigPatch {
	if q.InputShape != nil {
		p.InputShape = q.InputShape
	}
	if q.OutputShape != nil {
		p.OutputShape = q.OutputShape
	}
	if q.NumClasses != nil {
		p.NumClasses = q.NumClasses
	}
	if q.LearningRate != nil {
		p.LearningRate = q.LearningRate
	}
	if q.BatchSize != nil {
		p.BatchSize = q.BatchSize
	}
	if q.Epochs != nil {
		p.Epochs = q.Epochs
	}
	if q.HiddenUnits != nil {
		p.HiddenUnits = q.HiddenUnits
	}
	if q.Seed != nil {
		p.Seed = q.Seed
	}

	return p
}

func (c Config) Apply(p ConfigPatch) Config {
	if p.InputShape != nil {
		c.InputShape = slices.Clone(p.InputShape)
	}
	if p.OutputShape != nil {
		c.OutputShape = slices.Clone(p.OutputShape)
	}
	if p.NumClasses != nil {
		c.NumClasses = *p.NumClasses
		if p.OutputShape == nil {
			// derived again by Normalize
			c.OutputShape = nil
		}
	}
	if p.LearningRate != nil {
		c.LearningRate = *p.LearningRate
	}
	if p.BatchSize != nil {
		c.BatchSize = *p.BatchSize
	}
	if p.Epochs != nil {
		c.Epochs = *p.Epochs
	}
	if p.HiddenUnits != nil {
		c.HiddenUnits = slices.Clone(p.HiddenUnits)
	}
	if p.Seed != nil {
		c.Seed = *p.Seed
	}

	return c
}
