package storage

import "context"

// Store is a keyed collection kept in key order. The in-memory repositories
// are built on it.
type Store[V any] interface {
	Create(ctx context.Context, key string, value V) error
	Get(ctx context.Context, key string) (V, error)
	Update(ctx context.Context, key string, value V) error
	List(ctx context.Context, offset, limit uint64) ([]V, uint64, error)
	Delete(ctx context.Context, key string) error
}
