package storage

import (
	"context"
	"slices"
	"sync"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

var _ Store[int] = (*MemoryStore[int])(nil)

// MemoryStore keeps values in a map with a sorted key index so that List
// pages are stable. Values go through copyFn on the way in and out, which
// keeps callers from sharing slices with the store.
type MemoryStore[V any] struct {
	mu     sync.RWMutex
	data   map[string]V
	keys   []string
	copyFn func(V) V
}

func NewMemoryStore[V any](copyFn func(V) V) *MemoryStore[V] {
	if copyFn == nil {
		copyFn = func(v V) V { return v }
	}

	return &MemoryStore[V]{
		data:   make(map[string]V),
		copyFn: copyFn,
	}
}

func (s *MemoryStore[V]) Create(_ context.Context, key string, value V) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		return pkgerrors.ErrEntityExists
	}
	i, _ := slices.BinarySearch(s.keys, key)
	s.keys = slices.Insert(s.keys, i, key)
	s.data[key] = s.copyFn(value)

	return nil
}

func (s *MemoryStore[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	if key == "" {
		return zero, pkgerrors.ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return zero, pkgerrors.ErrNotFound
	}

	return s.copyFn(v), nil
}

func (s *MemoryStore[V]) Update(_ context.Context, key string, value V) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return pkgerrors.ErrNotFound
	}
	s.data[key] = s.copyFn(value)

	return nil
}

// List pages through values in key order.
func (s *MemoryStore[V]) List(_ context.Context, offset, limit uint64) ([]V, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := uint64(len(s.keys))
	if offset >= total {
		return []V{}, total, nil
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}

	values := make([]V, 0, end-offset)
	for _, k := range s.keys[offset:end] {
		values = append(values, s.copyFn(s.data[k]))
	}

	return values, total, nil
}

func (s *MemoryStore[V]) Delete(_ context.Context, key string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	if i, found := slices.BinarySearch(s.keys, key); found {
		s.keys = slices.Delete(s.keys, i, i+1)
	}

	return nil
}

// Last returns the value under the greatest key.
func (s *MemoryStore[V]) Last(_ context.Context) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	if len(s.keys) == 0 {
		return zero, false
	}

	return s.copyFn(s.data[s.keys[len(s.keys)-1]]), true
}
