package mcpserver

import "errors"

var (
	// ErrInvalidArguments indicates tool arguments did not match the schema.
	ErrInvalidArguments = errors.New("mcpserver: invalid arguments")

	// ErrMissingQuery indicates a search without query text.
	ErrMissingQuery = errors.New("query is required")

	// ErrNoQueries indicates a multi_search call with an empty queries list.
	ErrNoQueries = errors.New("queries must contain at least one query")
)
