// Package cache provides a SQLite-backed TTL cache for provider
// responses. Negative results are cached the same way as positive
// ones, bounding the cost of repeated lookups that will keep failing.
package cache
