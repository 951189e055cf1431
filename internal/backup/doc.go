// Package backup stores first-write-wins copies of files before they
// are rewritten, keyed by relative path with stem-matching across
// extension changes.
package backup
