package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: logically equal inputs produce the same key regardless of
//   struct field order or map insertion order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for input within namespace.
	Key(namespace string, input any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: cache:<namespace>:<hash>
// where hash is the first 16 characters of SHA-256(canonical JSON(input)).
func (k *DefaultKeyer) Key(namespace string, input any) (string, error) {
	canonical, err := Canonicalize(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("cache:%s:%s", namespace, hex.EncodeToString(hash[:8])), nil
}

// Canonicalize returns a JSON encoding of v in which every object has its
// keys sorted. A struct and a map with the same fields encode identically.
// Array order is preserved.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// Round-trip through a generic value: encoding/json writes map keys sorted,
	// which erases struct declaration order. UseNumber keeps numerals exact.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
