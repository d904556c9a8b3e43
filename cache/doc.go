// Package cache provides the time-bounded result cache used by the search
// client.
//
// MemoryCache is a generic in-memory store with per-entry TTLs. Expired
// entries are removed lazily when read and proactively by a background sweep
// that runs until Close is called. Keyer derives deterministic keys from
// request parameters, and Loader layers get-or-load semantics with optional
// request coalescing on top of any Cache.
package cache
