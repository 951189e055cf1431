package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test and a placeholder API key, then applies any options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.TMDB.APIKey = "test-key"
	cfg.Monitor.Watcher = false
	cfg.Monitor.Scanner = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	// The library dir belongs to Sonarr in production and is never
	// auto-created, so tests make it themselves.
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("create library dir: %v", err)
	}
	return &cfg
}

// WithoutBackups disables the backup store on the test config.
func WithoutBackups() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.BackupDir = ""
	}
}

// WithPreferredLanguages sets the translation preference order.
func WithPreferredLanguages(tags ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Rewrite.PreferredLanguages = tags
	}
}
