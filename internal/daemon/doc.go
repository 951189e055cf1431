// Package daemon runs the rewrite service: it owns the pipeline's
// resources, feeds it from the filesystem watcher and periodic scanner,
// and guarantees a single running instance via a lock file.
package daemon
