package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache is an in-memory Cache with lazy and periodic expiry.
//
// A sweep goroutine is started when the policy has a positive SweepInterval.
// Call Close to stop it; the cache stays usable afterwards with lazy eviction
// only.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	policy  Policy
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type entry[T any] struct {
	value     T
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry[T]) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Option configures a MemoryCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemoryCache creates a cache governed by policy and starts its sweep.
func NewMemoryCache[T any](policy Policy, opts ...Option) *MemoryCache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &MemoryCache[T]{
		entries: make(map[string]*entry[T]),
		policy:  policy,
		now:     o.now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if policy.SweepInterval > 0 {
		go c.sweepLoop(policy.SweepInterval)
	} else {
		close(c.done)
	}

	return c
}

// Get retrieves a value. Returns (zero, false) on miss or expiry.
func (c *MemoryCache[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return zero, false
	}

	if e.expired(c.now()) {
		c.mu.Lock()
		// A concurrent Set may have replaced the entry; only drop the one we saw.
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Has reports whether key holds a live value. It evicts expired entries like Get.
func (c *MemoryCache[T]) Has(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

// Set stores value with the given TTL, replacing any previous entry.
// ttl <= 0 selects the policy's DefaultTTL; the result is clamped to MaxTTL
// when the policy sets one.
// When the effective TTL is zero nothing is stored.
func (c *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) {
	ttl = c.policy.EffectiveTTL(ttl)
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = &entry[T]{
		value:     value,
		createdAt: c.now(),
		ttl:       ttl,
	}
	c.mu.Unlock()
}

// Delete removes a value from the cache. Idempotent.
func (c *MemoryCache[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *MemoryCache[T]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Stats returns the current entry count and sorted keys without pruning.
func (c *MemoryCache[T]) Stats() Stats {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *MemoryCache[T]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Close stops the background sweep and waits for it to exit. Idempotent.
func (c *MemoryCache[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

// Policy returns the cache policy.
func (c *MemoryCache[T]) Policy() Policy {
	return c.policy
}

func (c *MemoryCache[T]) sweepLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Ensure MemoryCache implements Cache
var _ Cache[string] = (*MemoryCache[string])(nil)
