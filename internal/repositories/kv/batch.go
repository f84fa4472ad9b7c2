package kv

import (
	"context"
	"maps"
	"slices"
)

// Batcher is implemented by repositories that can write several keys
// atomically.
type Batcher interface {
	SetMany(ctx context.Context, items map[string][]byte) error
}

// SetMany writes all items, atomically when repo is a Batcher and one key
// at a time, in key order, otherwise.
func SetMany(ctx context.Context, repo Repository, items map[string][]byte) error {
	if b, ok := repo.(Batcher); ok {
		return b.SetMany(ctx, items)
	}
	for _, k := range slices.Sorted(maps.Keys(items)) {
		if err := repo.Set(ctx, k, items[k]); err != nil {
			return err
		}
	}
	return nil
}
