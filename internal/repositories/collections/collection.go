// Package collections persists typed documents as JSON under a single key of
// a kv.Repository, the whole collection rewritten on every save.
package collections

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/runreward/runreward/internal/repositories/kv"
)

// Collection is a JSON array of T stored under one key.
type Collection[T any] struct {
	repo kv.Repository
	key  string
}

func New[T any](repo kv.Repository, key string) *Collection[T] {
	return &Collection[T]{repo: repo, key: key}
}

func (c *Collection[T]) Key() string { return c.key }

// Load returns the stored items, or an empty slice when the key is absent.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	data, err := c.repo.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}

	items := []T{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	data, err := c.Encode(items)
	if err != nil {
		return err
	}
	return c.repo.Set(ctx, c.key, data)
}

// Encode returns the bytes Save would store, for callers batching several
// collections into one kv.SetMany.
func (c *Collection[T]) Encode(items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	return data, nil
}

// Value is a single JSON document stored under one key.
type Value[T any] struct {
	repo kv.Repository
	key  string
}

func NewValue[T any](repo kv.Repository, key string) *Value[T] {
	return &Value[T]{repo: repo, key: key}
}

// Load returns nil when the key is absent.
func (v *Value[T]) Load(ctx context.Context) (*T, error) {
	data, err := v.repo.Get(ctx, v.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", v.key, err)
	}
	return &out, nil
}

func (v *Value[T]) Save(ctx context.Context, val T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", v.key, err)
	}
	return v.repo.Set(ctx, v.key, data)
}

func (v *Value[T]) Clear(ctx context.Context) error {
	return v.repo.Delete(ctx, v.key)
}
