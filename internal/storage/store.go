package storage

import "context"

// Store is the durable key-value medium the queue persists into.
// Implementations live in filestore.go, redis_store.go, and pg_store.go;
// tests use a hand-written mock (mock_store.go).
//
// Read returns (nil, nil) when the key has never been written.
// Write must return domain.ErrQuotaExceeded (possibly wrapped) when the
// medium is full — that error is the sole trigger for the queue's eviction
// policy, so it must be distinguishable from any other write failure.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}
