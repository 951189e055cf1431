// Package logging wraps log/slog with the handlers and attribute helpers
// used across the service: a console handler for interactive runs, a JSON
// handler for unattended ones, component-scoped child loggers, and the
// standardized field names shared by every package.
package logging
