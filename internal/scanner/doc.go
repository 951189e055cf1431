// Package scanner periodically walks the library for rewritable files.
package scanner
