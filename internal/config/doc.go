// Package config loads, normalizes, and validates the TOML configuration
// for the rewrite service. Paths are tilde-expanded and made absolute; the
// TMDB_API_KEY environment variable overrides the file value.
package config
