// Package services defines shared utilities consumed by the rewrite
// pipelines and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file paths, trigger sources, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (not-applicable vs transient vs permanent) consistent
//     across the TMDB client and the pipelines.
package services
