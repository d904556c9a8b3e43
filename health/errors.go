package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCacheFull indicates the result cache reached its entry threshold.
	ErrCacheFull = errors.New("health: cache entry threshold reached")
)
