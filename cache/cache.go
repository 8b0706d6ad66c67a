// Package cache provides the client-side read cache: a keyed, in-memory map
// of last-known entity values addressed by (kind, ref). Entries can be
// invalidated (marked stale so the next read refetches) or patched (value
// overwritten in place without a round trip). An optional snapshot store
// persists entries across sessions.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eventful-app/eventful-go/telemetry"
)

// ErrNotFound is returned by Value helpers when a key has no cached entry.
var ErrNotFound = errors.New("cache: not found")

// Entry is the last known value for a key plus its staleness flag. Stale
// entries remain readable; the flag only forces a refetch on the next
// read-through lookup.
type Entry struct {
	Value     any
	Stale     bool
	FetchedAt time.Time
}

// Cache is the process-scoped read cache. All methods are safe for
// concurrent use. Entries persist until Clear; there is no eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithNow sets the time function for testing.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]Entry),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key, stale or not.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok
}

// Set stores a freshly fetched value for key, clearing any staleness.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{Value: v, FetchedAt: c.now()}
}

// SetStale stores a value already known to be stale, e.g. restored from an
// offline snapshot. The next read-through lookup refetches it.
func (c *Cache) SetStale(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{Value: v, Stale: true, FetchedAt: c.now()}
}

// Patch overwrites the value for key in place, leaving the staleness flag
// untouched. Returns false without effect when the key has no entry: only
// invalidation can materialize an unfetched key, and only lazily.
func (c *Cache) Patch(ctx context.Context, key Key, fn func(old any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		telemetry.RecordCachePatch(ctx, key.Kind, false)
		return false
	}

	e.Value = fn(e.Value)
	c.entries[key] = e
	telemetry.RecordCachePatch(ctx, key.Kind, true)
	return true
}

// Invalidate marks the given keys stale. Keys without an entry are skipped;
// the next read-through lookup fetches them anyway.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		if !e.Stale {
			e.Stale = true
			c.entries[key] = e
			telemetry.RecordCacheInvalidation(ctx, key.Kind, 1)
		}
	}
}

// InvalidateKind marks every entry of the given kind stale, regardless of
// ref. Used where a mutation affects an unknown set of detail entries.
func (c *Cache) InvalidateKind(ctx context.Context, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if key.Kind != kind || e.Stale {
			continue
		}
		e.Stale = true
		c.entries[key] = e
		count++
	}
	telemetry.RecordCacheInvalidation(ctx, kind, count)
}

// Lookup is the read-through path. A fresh entry is returned as-is; a
// missing or stale entry triggers fetch, and only a successful fetch
// replaces the entry and clears staleness. On fetch failure the previous
// value (if any) is left in place, still stale.
func (c *Cache) Lookup(ctx context.Context, key Key, fetch func(ctx context.Context) (any, error)) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !e.Stale {
		telemetry.RecordCacheLookup(ctx, key.Kind, "hit")
		return e.Value, nil
	}

	if ok {
		telemetry.RecordCacheLookup(ctx, key.Kind, "stale")
	} else {
		telemetry.RecordCacheLookup(ctx, key.Kind, "miss")
	}

	v, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}

	c.Set(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Keys returns all cached keys in unspecified order.
func (c *Cache) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Clear drops every entry. Called on session teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]Entry)
}

// Value returns the cached value for key typed as T. Returns ErrNotFound
// when the key has no entry, or a type error when the entry holds something
// else.
func Value[T any](c *Cache, key Key) (T, error) {
	var zero T

	e, ok := c.Get(key)
	if !ok {
		return zero, ErrNotFound
	}

	v, ok := e.Value.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T, want %T", key, e.Value, zero)
	}
	return v, nil
}

// PatchValue applies fn to the typed cached value under key. It is a no-op
// returning false when the key is absent or holds a different type.
func PatchValue[T any](ctx context.Context, c *Cache, key Key, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		telemetry.RecordCachePatch(ctx, key.Kind, false)
		return false
	}

	v, ok := e.Value.(T)
	if !ok {
		c.logger.Warn("cache patch type mismatch", "key", key.String(), "have", fmt.Sprintf("%T", e.Value))
		telemetry.RecordCachePatch(ctx, key.Kind, false)
		return false
	}

	e.Value = fn(v)
	c.entries[key] = e
	telemetry.RecordCachePatch(ctx, key.Kind, true)
	return true
}
