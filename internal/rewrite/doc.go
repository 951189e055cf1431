// Package rewrite implements the two file pipelines: translating the
// title and description of .nfo sidecars, and swapping posters and
// clearlogos for localized artwork with an embedded provenance marker.
//
// Both pipelines are terminal on every path: errors are converted into
// failure results at the boundary, the live file is never left in a
// half-written state, and re-running on an already-processed file is a
// detectable no-op.
package rewrite
