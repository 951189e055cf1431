package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRewrite(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/sonarr-metadata-rewrite/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'sonarr-metadata-rewrite config init')", defaultPath)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return fmt.Errorf("paths.library_dir is required")
	}
	return nil
}

func (c *Config) validateRewrite() error {
	switch c.Rewrite.Format {
	case "", "kodi", "emby":
		return nil
	default:
		return fmt.Errorf("rewrite.format: unsupported value %q (use \"kodi\", \"emby\", or leave empty for auto-detect)", c.Rewrite.Format)
	}
}
