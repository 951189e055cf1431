package config

const (
	defaultLibraryDir          = "~/tv"
	defaultBackupDir           = "~/.local/share/sonarr-metadata-rewrite/backups"
	defaultCacheDir            = "~/.cache/sonarr-metadata-rewrite"
	defaultLogDir              = "~/.local/share/sonarr-metadata-rewrite/logs"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL    = "https://image.tmdb.org/t/p/original"
	defaultTMDBRequestTimeout  = 30
	defaultTMDBMaxRetries      = 3
	defaultTMDBRetryInitial    = 1
	defaultTMDBRetryMax        = 30
	defaultCacheTTLHours       = 720
	defaultScanInterval        = 3600
	defaultParseRetrySeconds   = 10
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
	defaultPreferredLanguage   = "zh-CN"
	defaultRewriteImagesToggle = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			BackupDir:  defaultBackupDir,
			CacheDir:   defaultCacheDir,
			LogDir:     defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:             defaultTMDBBaseURL,
			ImageBaseURL:        defaultTMDBImageBaseURL,
			RequestTimeout:      defaultTMDBRequestTimeout,
			MaxRetries:          defaultTMDBMaxRetries,
			RetryInitialSeconds: defaultTMDBRetryInitial,
			RetryMaxSeconds:     defaultTMDBRetryMax,
			CacheTTLHours:       defaultCacheTTLHours,
		},
		Rewrite: Rewrite{
			PreferredLanguages: []string{defaultPreferredLanguage},
			Images:             defaultRewriteImagesToggle,
			ParseRetrySeconds:  defaultParseRetrySeconds,
		},
		Monitor: Monitor{
			Watcher:      true,
			Scanner:      true,
			ScanInterval: defaultScanInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
