package config

import (
	"fmt"
	"strings"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeRewrite()
	c.normalizeMonitor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	if c.TMDB.MaxRetries < 0 {
		c.TMDB.MaxRetries = defaultTMDBMaxRetries
	}
	if c.TMDB.RetryInitialSeconds <= 0 {
		c.TMDB.RetryInitialSeconds = defaultTMDBRetryInitial
	}
	if c.TMDB.RetryMaxSeconds <= 0 {
		c.TMDB.RetryMaxSeconds = defaultTMDBRetryMax
	}
	if c.TMDB.CacheTTLHours <= 0 {
		c.TMDB.CacheTTLHours = defaultCacheTTLHours
	}
}

func (c *Config) normalizeRewrite() {
	normalized := make([]string, 0, len(c.Rewrite.PreferredLanguages))
	for _, tag := range c.Rewrite.PreferredLanguages {
		tag = language.Normalize(tag)
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
	}
	if len(normalized) == 0 {
		normalized = []string{defaultPreferredLanguage}
	}
	c.Rewrite.PreferredLanguages = normalized
	c.Rewrite.Format = strings.ToLower(strings.TrimSpace(c.Rewrite.Format))
	if c.Rewrite.ParseRetrySeconds <= 0 {
		c.Rewrite.ParseRetrySeconds = defaultParseRetrySeconds
	}
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.ScanInterval <= 0 {
		c.Monitor.ScanInterval = defaultScanInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
