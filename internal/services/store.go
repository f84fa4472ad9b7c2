// Package services implements the RunReward stores: courses, accounts with
// their registrations and favorites, administration and the external sync.
//
// Every store keeps its collections in a kv.Repository and rewrites a whole
// collection on each mutation. A per-store mutex serializes the
// read-modify-write cycles of one process; writers in other processes can
// still overwrite each other.
package services

import (
	"context"
	"time"

	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/repositories/collections"
	"github.com/runreward/runreward/internal/repositories/kv"
	"golang.org/x/text/cases"
)

func load[T any](ctx context.Context, c *collections.Collection[T], m *metrics.Metrics) ([]T, error) {
	defer m.TrackStoreOperation(c.Key(), "load")(time.Now())
	return c.Load(ctx)
}

func save[T any](ctx context.Context, c *collections.Collection[T], items []T, m *metrics.Metrics) error {
	defer m.TrackStoreOperation(c.Key(), "save")(time.Now())
	return c.Save(ctx, items)
}

type encoded struct {
	key  string
	data []byte
	err  error
}

func encode[T any](c *collections.Collection[T], items []T) encoded {
	data, err := c.Encode(items)
	return encoded{key: c.Key(), data: data, err: err}
}

// saveTogether writes several collections in one kv.SetMany, so SQL
// backends commit them in a single transaction.
func saveTogether(ctx context.Context, repo kv.Repository, m *metrics.Metrics, parts ...encoded) error {
	items := make(map[string][]byte, len(parts))
	for _, p := range parts {
		if p.err != nil {
			return p.err
		}
		items[p.key] = p.data
	}
	defer m.TrackStoreOperation("batch", "save")(time.Now())
	return kv.SetMany(ctx, repo, items)
}

// fold maps s to its Unicode case-folded form for case-insensitive matching.
func fold(s string) string {
	return cases.Fold().String(s)
}
