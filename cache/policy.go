package cache

import "time"

// Policy configures expiry behavior.
type Policy struct {
	// DefaultTTL applies when Set is called with ttl <= 0.
	// If zero, such calls store nothing.
	DefaultTTL time.Duration

	// MaxTTL clamps per-entry TTLs. Zero means no maximum.
	MaxTTL time.Duration

	// SweepInterval is how often the background sweep removes expired
	// entries. Zero or negative disables the sweep; lazy eviction still applies.
	SweepInterval time.Duration
}

// DefaultPolicy returns the policy used by the search client.
// DefaultTTL: 5 minutes, SweepInterval: 1 minute, no MaxTTL.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:    5 * time.Minute,
		SweepInterval: 1 * time.Minute,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
