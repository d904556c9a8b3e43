package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache stores values of type T under string keys with a per-entry TTL.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get returns (zero, false) on miss or expiry and never errors.
// - Expiry: an entry is valid while now - createdAt <= ttl.
type Cache[T any] interface {
	// Get retrieves a live value. Expired entries are evicted as a side effect.
	Get(ctx context.Context, key string) (T, bool)

	// Set stores value under key. A ttl <= 0 selects the cache's default TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration)

	// Delete removes a value. Idempotent.
	Delete(ctx context.Context, key string)

	// Clear removes every entry.
	Clear()

	// Stats returns a snapshot of the stored entries.
	Stats() Stats
}

// Stats is a point-in-time snapshot of a cache.
//
// Size counts stored entries, including expired ones that have not been
// swept or read yet.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
