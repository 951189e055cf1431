package backup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/fileutil"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
)

// Store keeps pre-rewrite originals under a backup root mirroring the
// library's relative layout. Backups are first-write-wins: once a path
// has a backup, later rewrites never touch it, so the stored bytes stay
// the original pre-rewrite state.
//
// Stem matching, not exact-path matching, is authoritative: rewriting
// an image can change its extension while the logical artwork identity
// (the stem) stays the same, so poster.png and poster.jpg share one
// backup record.
type Store struct {
	root    string
	library string
}

// NewStore builds a Store. An empty backupRoot disables backups; every
// operation then reports "nothing done" without error.
func NewStore(backupRoot, libraryRoot string) *Store {
	return &Store{root: backupRoot, library: libraryRoot}
}

// Enabled reports whether a backup root is configured.
func (s *Store) Enabled() bool { return s.root != "" }

// Root returns the backup root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) backupPath(path string) (string, error) {
	rel, err := filepath.Rel(s.library, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", services.Wrap(services.ErrValidation, "backup", "resolve", "path outside library root", err)
	}
	return filepath.Join(s.root, rel), nil
}

// Create backs up path if no backup with the same relative path or stem
// exists yet. It reports true when a backup exists afterwards, false
// when backups are disabled or the source file is missing.
func (s *Store) Create(path string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "backup", "create", "stat source", err)
	}

	dst, err := s.backupPath(path)
	if err != nil {
		return false, err
	}
	if existing := findByStem(dst); existing != "" {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, services.Wrap(services.ErrTransient, "backup", "create", "create backup directory", err)
	}
	if err := fileutil.CopyFilePreserved(path, dst); err != nil {
		return false, services.Wrap(services.ErrTransient, "backup", "create", "copy original", err)
	}
	return true, nil
}

// Locate returns the backup file for path, preferring an exact relative
// path match and falling back to any backup sharing the stem. It
// returns "" when backups are disabled or nothing matches.
func (s *Store) Locate(path string) string {
	if !s.Enabled() {
		return ""
	}
	dst, err := s.backupPath(path)
	if err != nil {
		return ""
	}
	return findByStem(dst)
}

// Restore copies the backup for path over its live location. Every
// other live file sharing the stem is deleted first, so an earlier
// extension-changing rewrite leaves no orphan behind. It reports false
// when no backup exists.
func (s *Store) Restore(path string) (bool, error) {
	src := s.Locate(path)
	if src == "" {
		return false, nil
	}

	dir := filepath.Dir(path)
	stem := stemOf(filepath.Base(path))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "backup", "restore", "read live directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || stemOf(entry.Name()) != stem {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return false, services.Wrap(services.ErrTransient, "backup", "restore", "remove live file", err)
		}
	}

	target := filepath.Join(dir, filepath.Base(src))
	if err := fileutil.CopyFilePreserved(src, target); err != nil {
		return false, services.Wrap(services.ErrTransient, "backup", "restore", "copy backup", err)
	}
	return true, nil
}

// Walk visits every backed-up file, passing its backup location and the
// corresponding live path under the library root.
func (s *Store) Walk(fn func(backupPath, livePath string) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.Join(s.library, rel))
	})
}

// findByStem returns want when it exists, otherwise the first file in
// the same directory sharing want's stem, otherwise "".
func findByStem(want string) string {
	if _, err := os.Stat(want); err == nil {
		return want
	}
	dir := filepath.Dir(want)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	stem := stemOf(filepath.Base(want))
	for _, entry := range entries {
		if !entry.IsDir() && stemOf(entry.Name()) == stem {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

func stemOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
