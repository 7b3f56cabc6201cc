package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	// DefaultShardCount is the default number of shards. Must be a power of 2.
	DefaultShardCount = 64

	// DefaultTTL is the default time-to-live for sharded entries.
	DefaultTTL = 15 * time.Minute
)

// Sharded is a string-keyed TTL map split across shards to reduce lock
// contention. Entries are never evicted for size, only for age.
type Sharded[V any] struct {
	shards    []*shard[V]
	shardMask uint32
	ttl       time.Duration
	now       func() time.Time
}

type shard[V any] struct {
	mu      sync.RWMutex
	entries map[string]timed[V]
}

type timed[V any] struct {
	value     V
	expiresAt time.Time
}

// ShardedConfig configures a Sharded cache.
type ShardedConfig struct {
	// ShardCount is rounded up to a power of 2.
	ShardCount int

	// TTL is the time-to-live for entries.
	TTL time.Duration
}

// DefaultShardedConfig returns the default configuration.
func DefaultShardedConfig() ShardedConfig {
	return ShardedConfig{
		ShardCount: DefaultShardCount,
		TTL:        DefaultTTL,
	}
}

// NewSharded creates a sharded TTL cache.
func NewSharded[V any](cfg ShardedConfig, opts ...Option) *Sharded[V] {
	count := cfg.ShardCount
	if count <= 0 {
		count = DefaultShardCount
	}
	count = nextPowerOf2(count)

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := config{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}

	shards := make([]*shard[V], count)
	for i := range shards {
		shards[i] = &shard[V]{entries: make(map[string]timed[V])}
	}
	return &Sharded[V]{
		shards:    shards,
		shardMask: uint32(count - 1), //nolint:gosec // count is a small positive power of 2
		ttl:       ttl,
		now:       c.now,
	}
}

func (c *Sharded[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()&c.shardMask]
}

// Get returns the live value for key.
func (c *Sharded[V]) Get(key string) (V, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the configured TTL. Expired entries of the
// same shard are dropped on the way.
func (c *Sharded[V]) Set(key string, value V) {
	now := c.now()
	s := c.shardFor(key)
	s.mu.Lock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = timed[V]{value: value, expiresAt: now.Add(c.ttl)}
	s.mu.Unlock()
}

// Clear removes all entries.
func (c *Sharded[V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]timed[V])
		s.mu.Unlock()
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Sharded[V]) Len() int {
	var n int
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Key joins parts with a separator that does not occur in URLs or codes.
func Key(parts ...string) string {
	n := len(parts)
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, p...)
	}
	return string(b)
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
