// Package cache provides a namespaced key-value cache with per-entry TTL,
// used to short-circuit repeated reads of slowly-changing API responses.
// Expired entries are evicted lazily on read; there is no background sweep.
package cache

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// DefaultTTL applies when Set is called with a zero duration.
const DefaultTTL = 10 * time.Minute

// Store is the underlying persistence for serialized cache entries. Keys
// passed to a Store are already namespaced. Implementations must be safe for
// concurrent use.
type Store interface {
	Read(key string) ([]byte, bool, error)
	Write(key string, data []byte) error
	Delete(key string) error
	// Keys lists every stored key with the given prefix.
	Keys(prefix string) ([]string, error)
}

type entry struct {
	Value  json.RawMessage `json:"value"`
	Expiry int64           `json:"expiry"` // unix milliseconds
}

// Option customises the cache configuration.
type Option func(*Cache)

// WithLogger injects the logger used for swallowed store failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache wraps a Store with TTL semantics under a fixed namespace. Operations
// never return errors: any store failure is logged and degrades to cache-miss
// behavior so callers fall back to the network.
type Cache struct {
	store     Store
	namespace string
	log       *slog.Logger
	now       func() time.Time
}

// New constructs a Cache over the given store. Namespace defaults to
// "hrclient" when empty; it prefixes every key so ClearAll cannot touch
// unrelated stored state.
func New(store Store, namespace string, options ...Option) *Cache {
	if strings.TrimSpace(namespace) == "" {
		namespace = "hrclient"
	}
	c := &Cache{
		store:     store,
		namespace: namespace,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Set stores value under key with the given TTL, overwriting any existing
// entry. A zero ttl falls back to DefaultTTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if c == nil || c.store == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache: marshal value", "key", key, "error", err)
		return
	}
	data, err := json.Marshal(entry{
		Value:  raw,
		Expiry: c.now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		c.log.Warn("cache: marshal entry", "key", key, "error", err)
		return
	}
	if err := c.store.Write(c.scoped(key), data); err != nil {
		c.log.Warn("cache: write", "key", key, "error", err)
	}
}

// Get decodes the entry for key into dest and reports whether it was a hit.
// A present-but-expired entry is deleted as a side effect and reported as a
// miss; eviction is permanent, not refreshed.
func (c *Cache) Get(key string, dest any) bool {
	if c == nil || c.store == nil {
		return false
	}
	data, ok, err := c.store.Read(c.scoped(key))
	if err != nil {
		c.log.Warn("cache: read", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	var ent entry
	if err := json.Unmarshal(data, &ent); err != nil {
		c.log.Warn("cache: decode entry", "key", key, "error", err)
		c.Remove(key)
		return false
	}
	if c.now().UnixMilli() > ent.Expiry {
		c.Remove(key)
		return false
	}
	if dest != nil {
		if err := json.Unmarshal(ent.Value, dest); err != nil {
			c.log.Warn("cache: decode value", "key", key, "error", err)
			return false
		}
	}
	return true
}

// Remove deletes the entry for key.
func (c *Cache) Remove(key string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(c.scoped(key)); err != nil {
		c.log.Warn("cache: delete", "key", key, "error", err)
	}
}

// ClearAll removes every entry under this cache's namespace and nothing else.
func (c *Cache) ClearAll() {
	if c == nil || c.store == nil {
		return
	}
	keys, err := c.store.Keys(c.namespace + ":")
	if err != nil {
		c.log.Warn("cache: list keys", "error", err)
		return
	}
	for _, key := range keys {
		if err := c.store.Delete(key); err != nil {
			c.log.Warn("cache: delete", "key", key, "error", err)
		}
	}
}

func (c *Cache) scoped(key string) string {
	return c.namespace + ":" + key
}
