package rollback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/testsupport"
)

func testConfig(t *testing.T) (*config.Config, string, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return cfg, cfg.Paths.LibraryDir, cfg.Paths.BackupDir
}

func TestNewRequiresBackupDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.BackupDir = ""
	if _, err := New(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRunMissingBackupRootIsNoOp(t *testing.T) {
	cfg, _, backups := testConfig(t)
	if err := os.Remove(backups); err != nil {
		t.Fatal(err)
	}
	r, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Restored != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want zero counts", summary)
	}
}

func TestRunRestoresAllBackups(t *testing.T) {
	cfg, library, backups := testConfig(t)
	testsupport.WriteFile(t, filepath.Join(backups, "Show", "tvshow.nfo"), "original series")
	testsupport.WriteFile(t, filepath.Join(backups, "Show", "poster.png"), "original poster")
	testsupport.WriteFile(t, filepath.Join(library, "Show", "tvshow.nfo"), "translated series")
	// The rewrite changed the poster's extension; restore must remove it.
	testsupport.WriteFile(t, filepath.Join(library, "Show", "poster.jpg"), "localized poster")

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Restored != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 restored", summary)
	}

	data, err := os.ReadFile(filepath.Join(library, "Show", "tvshow.nfo"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original series" {
		t.Errorf("nfo content = %q", data)
	}
	data, err = os.ReadFile(filepath.Join(library, "Show", "poster.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original poster" {
		t.Errorf("poster content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(library, "Show", "poster.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Error("rewritten poster.jpg still present after restore")
	}
}

func TestRunCountsMissingLiveDirectoryAsFailed(t *testing.T) {
	cfg, library, backups := testConfig(t)
	testsupport.WriteFile(t, filepath.Join(backups, "Gone", "tvshow.nfo"), "original")
	testsupport.WriteFile(t, filepath.Join(backups, "Show", "tvshow.nfo"), "original")
	testsupport.WriteFile(t, filepath.Join(library, "Show", "tvshow.nfo"), "translated")

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Restored != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 restored, 1 failed", summary)
	}
}
