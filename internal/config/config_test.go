package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path mismatch: %s", resolved)
	}
	if cfg.TMDB.BaseURL != defaultTMDBBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.TMDB.BaseURL)
	}
	if len(cfg.Rewrite.PreferredLanguages) != 1 || cfg.Rewrite.PreferredLanguages[0] != "zh-CN" {
		t.Fatalf("unexpected preferred languages: %v", cfg.Rewrite.PreferredLanguages)
	}
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + dir + `/tv"
backup_dir = ""

[tmdb]
api_key = "abc123"

[rewrite]
preferred_languages = ["zh-cn", "ja"]
format = "emby"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("api key mismatch: %s", cfg.TMDB.APIKey)
	}
	if cfg.BackupsEnabled() {
		t.Fatal("expected backups disabled with empty backup_dir")
	}
	if cfg.Rewrite.Format != "emby" {
		t.Fatalf("format mismatch: %s", cfg.Rewrite.Format)
	}
	// Tags are canonicalized on load.
	if cfg.Rewrite.PreferredLanguages[0] != "zh-CN" {
		t.Fatalf("expected canonical zh-CN, got %s", cfg.Rewrite.PreferredLanguages[0])
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "key")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[rewrite]
format = "plex"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "rewrite.format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestEnvOverridesFileKey(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[tmdb]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("expected env override, got %s", cfg.TMDB.APIKey)
	}
}
