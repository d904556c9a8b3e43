// Package config loads the websearch server configuration.
//
// Values are resolved in this order, later steps winning:
//
//  1. Defaults
//  2. The YAML file, if a path is given
//  3. Strict ${VAR} expansion of string values in the file
//  4. WEBSEARCH_* environment overrides, with SEARXNG_URL as a fallback
//     for the upstream address
//
// Validate then reports every problem at once as a *ValidationError.
package config
