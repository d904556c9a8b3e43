package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for a missing key.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader wraps a Cache with get-or-load semantics.
//
// Contract:
// - Errors from LoadFunc are returned unchanged and never cached.
// - Invalid keys (see ValidateKey) bypass the cache entirely.
// - With coalescing enabled, concurrent misses for one key share a single
//   LoadFunc call. Without it every miss loads independently.
// - A coalesced LoadFunc runs without the caller's cancellation; a caller
//   that gives up returns ctx.Err() while the other waiters keep waiting.
type Loader[T any] struct {
	cache    Cache[T]
	ttl      time.Duration
	coalesce bool
	group    singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	ttl      time.Duration
	coalesce bool
}

// WithLoadTTL sets the TTL for loaded values. Zero uses the cache default.
func WithLoadTTL(ttl time.Duration) LoaderOption {
	return func(o *loaderOptions) {
		o.ttl = ttl
	}
}

// WithCoalescing enables at-most-one-in-flight loading per key.
func WithCoalescing(enabled bool) LoaderOption {
	return func(o *loaderOptions) {
		o.coalesce = enabled
	}
}

// NewLoader creates a Loader over c.
func NewLoader[T any](c Cache[T], opts ...LoaderOption) *Loader[T] {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[T]{
		cache:    c,
		ttl:      o.ttl,
		coalesce: o.coalesce,
	}
}

// Load returns the cached value for key, or calls fn and caches its result.
// The boolean reports whether the value was served from the cache.
func (l *Loader[T]) Load(ctx context.Context, key string, fn LoadFunc[T]) (T, bool, error) {
	var zero T

	if l.cache == nil {
		return zero, false, ErrNilCache
	}

	if err := ValidateKey(key); err != nil {
		v, err := fn(ctx)
		return v, false, err
	}

	if v, ok := l.cache.Get(ctx, key); ok {
		return v, true, nil
	}

	if !l.coalesce {
		v, err := l.fill(ctx, key, fn)
		return v, false, err
	}

	// The flight outlives any single caller, so it runs detached from the
	// caller's cancellation. The HTTP client and executor timeouts bound it.
	flightCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		// An earlier flight may have filled the cache after our Get.
		if v, ok := l.cache.Get(flightCtx, key); ok {
			return flight[T]{val: v, hit: true}, nil
		}
		v, err := l.fill(flightCtx, key, fn)
		return flight[T]{val: v}, err
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		f, _ := res.Val.(flight[T])
		return f.val, f.hit, nil
	}
}

// flight is the shared result of a coalesced load.
type flight[T any] struct {
	val T
	hit bool
}

func (l *Loader[T]) fill(ctx context.Context, key string, fn LoadFunc[T]) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	l.cache.Set(ctx, key, v, l.ttl)
	return v, nil
}
