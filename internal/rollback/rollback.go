package rollback

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/backup"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
)

// Summary reports the outcome of a rollback run.
type Summary struct {
	Restored int
	Failed   int
}

// Runner restores every backed-up original over its live location.
type Runner struct {
	backups *backup.Store
	logger  *slog.Logger
}

// New builds a Runner from cfg. It fails when no backup directory is
// configured, since rollback has nothing to restore from.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if cfg.Paths.BackupDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "rollback", "new",
			"backup_dir is not configured", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		backups: backup.NewStore(cfg.Paths.BackupDir, cfg.Paths.LibraryDir),
		logger:  logging.NewComponentLogger(logger, "rollback"),
	}, nil
}

// Run restores all backups. Individual restore failures are logged and
// counted but never abort the run; files whose live directory no longer
// exists are counted as failed and skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if _, err := os.Stat(r.backups.Root()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("backup directory does not exist, nothing to restore",
				logging.String(logging.FieldPath, r.backups.Root()))
			return summary, nil
		}
		return summary, services.Wrap(services.ErrTransient, "rollback", "run",
			"stat backup directory", err)
	}

	err := r.backups.Walk(func(backupPath, livePath string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := os.Stat(filepath.Dir(livePath)); err != nil {
			summary.Failed++
			r.logger.Warn("live directory missing, skipping restore",
				logging.String(logging.FieldPath, livePath))
			return nil
		}
		restored, err := r.backups.Restore(livePath)
		if err != nil {
			summary.Failed++
			r.logger.Warn("restore failed",
				logging.String(logging.FieldPath, livePath),
				logging.Error(err))
			return nil
		}
		if restored {
			summary.Restored++
			r.logger.Info("restored original",
				logging.String(logging.FieldPath, livePath),
				logging.String("backup", backupPath))
		}
		return nil
	})
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, "rollback", "run",
			"walk backup directory", err)
	}

	r.logger.Info("rollback complete",
		logging.Int("restored", summary.Restored),
		logging.Int("failed", summary.Failed))
	return summary, nil
}
