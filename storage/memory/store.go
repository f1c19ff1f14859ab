package memorystore

import (
	"context"
	"sync"

	"github.com/PaulFidika/vipbridge/entitlements"
)

// Backend is an in-memory entitlement snapshot. Snapshots are copied on the way
// in and out so callers never share a slice with the backend.
// It is intended for tests and for running without any persistence.
type Backend struct {
	mu   sync.Mutex
	recs []entitlements.Record
}

// New creates a backend seeded with the given records.
func New(seed ...entitlements.Record) *Backend {
	return &Backend{recs: clone(seed)}
}

func (b *Backend) Load(ctx context.Context) ([]entitlements.Record, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.recs), nil
}

func (b *Backend) Save(ctx context.Context, records []entitlements.Record) error {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs = clone(records)
	return nil
}

// Len returns the number of stored records.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recs)
}

func clone(in []entitlements.Record) []entitlements.Record {
	out := make([]entitlements.Record, len(in))
	copy(out, in)
	return out
}
