package postgres

import (
	"encoding/json"
	"math"
	"time"
)

func jsonBytes(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v any) error {
	if data == nil {
		return nil
	}

	return json.Unmarshal(data, v)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}

	return &t
}

func valueOf[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}

	return *p
}

// sqlLimit keeps LIMIT within the signed range the driver accepts.
func sqlLimit(limit uint64) int64 {
	if limit > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(limit)
}
