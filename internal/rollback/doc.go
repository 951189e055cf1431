// Package rollback restores backed-up originals over their rewritten
// library files.
package rollback
