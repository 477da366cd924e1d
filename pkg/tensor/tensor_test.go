package tensor_test

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/model"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

func TestSize(t *testing.T) {
	cases := []struct {
		desc  string
		shape []int
		size  int
	}{
		{desc: "scalar", shape: nil, size: 1},
		{desc: "vector", shape: []int{4}, size: 4},
		{desc: "matrix", shape: []int{4, 3}, size: 12},
		{desc: "image", shape: []int{2, 3, 4}, size: 24},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.size, tensor.Size(tc.shape), fmt.Sprintf("%s: unexpected size", tc.desc))
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		desc   string
		tensor tensor.Tensor
		err    error
	}{
		{
			desc:   "valid tensor",
			tensor: tensor.New(2, 2),
			err:    nil,
		},
		{
			desc:   "data shorter than shape",
			tensor: tensor.Tensor{Shape: []int{2, 2}, Data: []float64{1, 2, 3}},
			err:    pkgerrors.ErrShapeMismatch,
		},
		{
			desc:   "zero dimension",
			tensor: tensor.Tensor{Shape: []int{0, 2}, Data: nil},
			err:    pkgerrors.ErrShapeMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.tensor.Validate()
			if tc.err == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := tensor.Snapshot{{Shape: []int{2}, Data: []float64{1, 2}}}
	c := s.Clone()
	c[0].Data[0] = 42
	c[0].Shape[0] = 7

	assert.Equal(t, 1.0, s[0].Data[0])
	assert.Equal(t, 2, s[0].Shape[0])
}

func TestCompatible(t *testing.T) {
	ref := tensor.Snapshot{tensor.New(4, 3), tensor.New(3)}

	cases := []struct {
		desc     string
		snapshot tensor.Snapshot
		err      error
	}{
		{desc: "same shapes", snapshot: tensor.Snapshot{tensor.New(4, 3), tensor.New(3)}, err: nil},
		{desc: "missing layer", snapshot: tensor.Snapshot{tensor.New(4, 3)}, err: pkgerrors.ErrShapeMismatch},
		{desc: "transposed layer", snapshot: tensor.Snapshot{tensor.New(3, 4), tensor.New(3)}, err: pkgerrors.ErrShapeMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.snapshot.Compatible(ref)
			if tc.err == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCodec(t *testing.T) {
	s := tensor.Snapshot{
		{Shape: []int{2, 2}, Data: []float64{0.5, -1.25, 3, 4}},
		{Shape: []int{2}, Data: []float64{0, 1e-9}},
	}

	data, err := tensor.Encode(s)
	require.NoError(t, err)

	decoded, err := tensor.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	_, err = tensor.Decode(nil)
	assert.Error(t, err)

	_, err = tensor.Decode([]byte("not snappy"))
	assert.Error(t, err)
}

func TestCodecImageModel(t *testing.T) {
	handle, err := model.Build(model.Config{
		InputShape:   []int{32, 32, 3},
		NumClasses:   10,
		LearningRate: 0.01,
		BatchSize:    32,
		Epochs:       1,
	})
	require.NoError(t, err)
	s := handle.Weights()
	require.Greater(t, len(s[0].Data), 131072, "first layer must exceed the default CBOR array limit")

	data, err := tensor.Encode(s)
	require.NoError(t, err)

	decoded, err := tensor.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestCodecKeepsInconsistentLayers(t *testing.T) {
	s := tensor.Snapshot{
		{Shape: []int{2}, Data: []float64{1, 2}},
		{Shape: []int{2}, Data: []float64{3}},
	}

	data, err := tensor.Encode(s)
	require.NoError(t, err)

	decoded, err := tensor.Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.NoError(t, decoded[0].Validate())
	assert.ErrorIs(t, decoded[1].Validate(), pkgerrors.ErrShapeMismatch)
}

func TestDecodeRejectsOversizedPayload(t *testing.T) {
	cases := []struct {
		desc string
		data []byte
	}{
		{desc: "declared length above limit", data: append(binary.AppendUvarint(nil, 1<<30), 0)},
		{desc: "declared length near 4GiB", data: append(binary.AppendUvarint(nil, 0xfffffff0), 0)},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := tensor.Decode(tc.data)
			assert.ErrorIs(t, err, tensor.ErrSnapshotTooLarge)
		})
	}
}
