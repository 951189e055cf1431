package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	BackupDir  string `toml:"backup_dir"`
	CacheDir   string `toml:"cache_dir"`
	LogDir     string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	ImageBaseURL        string `toml:"image_base_url"`
	RequestTimeout      int    `toml:"request_timeout"`
	MaxRetries          int    `toml:"max_retries"`
	RetryInitialSeconds int    `toml:"retry_initial_seconds"`
	RetryMaxSeconds     int    `toml:"retry_max_seconds"`
	CacheTTLHours       int    `toml:"cache_ttl_hours"`
}

// Rewrite contains configuration for the rewrite pipelines.
type Rewrite struct {
	PreferredLanguages []string `toml:"preferred_languages"`
	Format             string   `toml:"format"` // "", "kodi", or "emby"
	Images             bool     `toml:"images"`
	ParseRetrySeconds  int      `toml:"parse_retry_seconds"`
}

// Monitor contains configuration for the trigger sources.
type Monitor struct {
	Watcher      bool `toml:"watcher"`
	Scanner      bool `toml:"scanner"`
	ScanInterval int  `toml:"scan_interval"` // seconds
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration for the service.
type Config struct {
	Paths   Paths   `toml:"paths"`
	TMDB    TMDB    `toml:"tmdb"`
	Rewrite Rewrite `toml:"rewrite"`
	Monitor Monitor `toml:"monitor"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sonarr-metadata-rewrite/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The TMDB_API_KEY
// environment variable overrides the file value when set.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if key := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); key != "" {
		cfg.TMDB.APIKey = key
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for service operation.
// LibraryDir is expected to exist already (it belongs to Sonarr); it is not
// created here so a misconfigured root fails loudly instead of silently
// watching an empty directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.BackupDir) != "" {
		dirs = append(dirs, c.Paths.BackupDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// BackupsEnabled reports whether original-file backups are configured.
func (c *Config) BackupsEnabled() bool {
	return strings.TrimSpace(c.Paths.BackupDir) != ""
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Abs(pathValue)
}
