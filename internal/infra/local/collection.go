package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
)

// Persisted collection keys.
const (
	KeyUsers    = "users"
	KeyClients  = "clients"
	KeyServices = "services"
	KeyExpenses = "expenses"
	KeyLogs     = "logs"
)

// collection is a keyed list of records serialized as one JSON array.
type collection[T any] struct {
	store kv.Store
	key   string
	id    func(*T) string
}

func newCollection[T any](store kv.Store, key string, id func(*T) string) collection[T] {
	return collection[T]{store: store, key: key, id: id}
}

func (c collection[T]) all(ctx context.Context) ([]T, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return items, nil
}

func (c collection[T]) replaceAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.store.Set(ctx, c.key, raw)
}

// ensure writes an empty list when the key does not exist yet.
func (c collection[T]) ensure(ctx context.Context) error {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return err
	}
	if raw != nil {
		return nil
	}
	return c.replaceAll(ctx, nil)
}

// find returns a copy of the record with the given id, or nil.
func (c collection[T]) find(ctx context.Context, id string) (*T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.id(&items[i]) == id {
			found := items[i]
			return &found, nil
		}
	}
	return nil, nil
}

// upsert replaces the record with the same id in place or appends it.
func (c collection[T]) upsert(ctx context.Context, item T) error {
	items, err := c.all(ctx)
	if err != nil {
		return err
	}
	id := c.id(&item)
	for i := range items {
		if c.id(&items[i]) == id {
			items[i] = item
			return c.replaceAll(ctx, items)
		}
	}
	return c.replaceAll(ctx, append(items, item))
}

func (c collection[T]) remove(ctx context.Context, id string) (bool, error) {
	items, err := c.all(ctx)
	if err != nil {
		return false, err
	}
	out := items[:0]
	removed := false
	for _, it := range items {
		if c.id(&it) == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	if !removed {
		return false, nil
	}
	return true, c.replaceAll(ctx, out)
}
