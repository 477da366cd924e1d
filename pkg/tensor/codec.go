package tensor

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
)

// MaxParams bounds the number of values a single layer, and a whole
// snapshot, may carry on the wire. It leaves room for image models
// well beyond the default hidden sizes.
const MaxParams = 1 << 25

// maxEncodedLen bounds the decompressed CBOR payload: every float64 takes
// nine bytes, with a margin for shapes and array headers.
const maxEncodedLen = 9*MaxParams + 1<<20

var (
	errEmptyPayload     = errors.New("empty snapshot payload")
	ErrSnapshotTooLarge = errors.New("snapshot exceeds the maximum parameter count")

	decMode = func() cbor.DecMode {
		dm, err := cbor.DecOptions{MaxArrayElements: MaxParams}.DecMode()
		if err != nil {
			panic(err)
		}

		return dm
	}()
)

// Encode serializes a snapshot as snappy-compressed CBOR. This is the format
// used on the wire between peers and for stored round snapshots.
func Encode(s Snapshot) ([]byte, error) {
	if s.NumParams() > MaxParams {
		return nil, fmt.Errorf("%w: %d values", ErrSnapshotTooLarge, s.NumParams())
	}
	raw, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return snappy.Encode(nil, raw), nil
}

// Decode checks only the framing. Layers whose data disagrees with their
// shape are returned as is; consumers reject them layer by layer.
func Decode(data []byte) (Snapshot, error) {
	if len(data) == 0 {
		return nil, errEmptyPayload
	}

	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if n > maxEncodedLen {
		return nil, fmt.Errorf("%w: %d bytes decompressed", ErrSnapshotTooLarge, n)
	}

	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var s Snapshot
	if err := decMode.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.NumParams() > MaxParams {
		return nil, fmt.Errorf("%w: %d values", ErrSnapshotTooLarge, s.NumParams())
	}

	return s, nil
}
