package search

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRequestFailed matches *RequestError.
	ErrRequestFailed = errors.New("search: upstream request failed")

	// ErrSearchFailed matches *SearchError.
	ErrSearchFailed = errors.New("search: search failed")

	// ErrInvalidParams indicates Params failed validation.
	ErrInvalidParams = errors.New("search: invalid params")

	// ErrInvalidBaseURL indicates the client base URL is not an absolute
	// http(s) URL.
	ErrInvalidBaseURL = errors.New("search: invalid base URL")
)

// RequestError reports a non-2xx response from SearXNG.
type RequestError struct {
	StatusCode int
	StatusText string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("SearXNG request failed: %d %s", e.StatusCode, e.StatusText)
}

// Is reports whether target is ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Retryable reports whether the status is worth retrying: 429 and 5xx.
func (e *RequestError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SearchError reports a search that failed before a usable response was
// decoded.
type SearchError struct {
	Err error

	transient bool
}

func (e *SearchError) Error() string {
	return "failed to search SearXNG: " + e.Err.Error()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSearchFailed.
func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}

// Retryable reports whether the failure happened in transport, where a new
// attempt may succeed.
func (e *SearchError) Retryable() bool {
	return e.transient
}

func searchErr(err error) *SearchError {
	return &SearchError{Err: err}
}

func transportErr(err error) *SearchError {
	return &SearchError{Err: err, transient: true}
}

// asSearchFailure returns err unchanged when it already carries one of the
// package's error types, and wraps it in a *SearchError otherwise.
func asSearchFailure(err error) error {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	var sErr *SearchError
	if errors.As(err, &reqErr) || errors.As(err, &sErr) {
		return err
	}
	return &SearchError{Err: err}
}
