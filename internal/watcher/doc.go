// Package watcher feeds filesystem events for sidecars and artwork
// into the rewrite dispatch, the event-driven half of the two trigger
// sources.
package watcher
