// Package cache wraps an in-process sturdyc client behind structured,
// namespaced keys so entity lookups can be memoized and invalidated
// without stringly-typed key collisions across entity types.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// keySeparator delimits the segments of a serialized cache key.
const keySeparator = "::"

// Key identifies one cached lookup: entity type, lookup dimension and
// the identifier within that dimension, e.g. {category by-id 42}.
type Key struct {
	Entity    string
	Dimension string
	ID        string
}

// NewKey builds a Key, rendering the identifier with fmt.Sprint so both
// numeric ids and slugs are accepted.
func NewKey(entity, dimension string, id any) Key {
	return Key{Entity: entity, Dimension: dimension, ID: fmt.Sprint(id)}
}

// String serializes the key segments with a fixed separator.
func (k Key) String() string {
	return strings.Join([]string{k.Entity, k.Dimension, k.ID}, keySeparator)
}

// Cache is a process-wide read-through cache. Entries expire a fixed TTL
// after creation; concurrent fetches for the same key are coalesced by the
// underlying sturdyc client.
type Cache struct {
	client *sturdyc.Client[any]
}

const (
	defaultCapacity           = 10000
	defaultNumShards          = 64
	defaultEvictionPercentage = 10
)

// New creates a Cache whose entries expire ttl after being stored.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{
		client: sturdyc.New[any](
			defaultCapacity,
			defaultNumShards,
			ttl,
			defaultEvictionPercentage,
		),
	}
}

// Invalidate removes the entry for key immediately, regardless of its
// remaining TTL. Callers invoke this after every successful write to the
// underlying entity.
func (c *Cache) Invalidate(key Key) {
	c.client.Delete(key.String())
}

// GetOrFetch returns the cached value for key, or runs loader on a miss and
// stores the result. Absent values (typed nil pointers) are cached too, so
// repeated lookups for a missing record do not hit the store. Loader errors
// are never cached; the next call re-runs the loader.
func GetOrFetch[T any](ctx context.Context, c *Cache, key Key, loader func(context.Context) (T, error)) (T, error) {
	value, err := c.client.GetOrFetch(ctx, key.String(), func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	result, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: unexpected value type %T for key %s", value, key)
	}
	return result, nil
}
