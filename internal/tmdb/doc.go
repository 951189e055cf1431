// Package tmdb is the provider client: translations, series details,
// external-id resolution, and artwork selection against the TMDB v3
// API, with SQLite-backed response caching and bounded backoff on rate
// limiting.
package tmdb
