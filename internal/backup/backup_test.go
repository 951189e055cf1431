package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	library := t.TempDir()
	backups := t.TempDir()
	return NewStore(backups, library), library, backups
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndLocate(t *testing.T) {
	store, library, backups := newTestStore(t)
	live := filepath.Join(library, "Show", "tvshow.nfo")
	writeFile(t, live, "original")

	created, err := store.Create(live)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("expected backup to be created")
	}

	backup := filepath.Join(backups, "Show", "tvshow.nfo")
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("backup content = %q", data)
	}

	if got := store.Locate(live); got != backup {
		t.Errorf("Locate = %q, want %q", got, backup)
	}
}

func TestCreateFirstWriteWins(t *testing.T) {
	store, library, backups := newTestStore(t)
	live := filepath.Join(library, "Show", "tvshow.nfo")
	writeFile(t, live, "original")

	if _, err := store.Create(live); err != nil {
		t.Fatal(err)
	}

	// Rewrite the live file and back up again; the stored bytes must
	// stay the original.
	writeFile(t, live, "rewritten")
	created, err := store.Create(live)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("existing backup should still report backed up")
	}

	data, err := os.ReadFile(filepath.Join(backups, "Show", "tvshow.nfo"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("backup was overwritten: %q", data)
	}
}

func TestCreateStemProtectsAcrossExtensions(t *testing.T) {
	store, library, backups := newTestStore(t)
	png := filepath.Join(library, "Show", "poster.png")
	writeFile(t, png, "png-bytes")

	if _, err := store.Create(png); err != nil {
		t.Fatal(err)
	}

	// A later rewrite changed the extension. Backing up the jpg must
	// not create a second record for the same logical artwork.
	jpg := filepath.Join(library, "Show", "poster.jpg")
	writeFile(t, jpg, "jpg-bytes")
	created, err := store.Create(jpg)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("stem-matched backup should report backed up")
	}

	entries, err := os.ReadDir(filepath.Join(backups, "Show"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "poster.png" {
		t.Errorf("unexpected backup dir contents: %v", entries)
	}

	if got := store.Locate(jpg); filepath.Base(got) != "poster.png" {
		t.Errorf("Locate(%q) = %q", jpg, got)
	}
}

func TestRestoreCleansStemSiblings(t *testing.T) {
	store, library, _ := newTestStore(t)
	png := filepath.Join(library, "Show", "poster.png")
	writeFile(t, png, "png-bytes")
	if _, err := store.Create(png); err != nil {
		t.Fatal(err)
	}

	// Simulate an extension-changing rewrite.
	jpg := filepath.Join(library, "Show", "poster.jpg")
	writeFile(t, jpg, "jpg-bytes")
	if err := os.Remove(png); err != nil {
		t.Fatal(err)
	}

	restored, err := store.Restore(jpg)
	if err != nil {
		t.Fatal(err)
	}
	if !restored {
		t.Fatal("expected restore")
	}

	if _, err := os.Stat(jpg); !os.IsNotExist(err) {
		t.Error("jpg should be deleted after restore")
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("restored content = %q", data)
	}
}

func TestRestoreWithoutBackup(t *testing.T) {
	store, library, _ := newTestStore(t)
	live := filepath.Join(library, "Show", "tvshow.nfo")
	writeFile(t, live, "content")

	restored, err := store.Restore(live)
	if err != nil {
		t.Fatal(err)
	}
	if restored {
		t.Error("restore without backup should be a no-op")
	}
}

func TestDisabledStore(t *testing.T) {
	library := t.TempDir()
	store := NewStore("", library)
	live := filepath.Join(library, "tvshow.nfo")
	writeFile(t, live, "content")

	created, err := store.Create(live)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("disabled store should not create backups")
	}
	if got := store.Locate(live); got != "" {
		t.Errorf("Locate on disabled store = %q", got)
	}
}

func TestCreateMissingSource(t *testing.T) {
	store, library, _ := newTestStore(t)
	created, err := store.Create(filepath.Join(library, "missing.nfo"))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("missing source should report nothing to back up")
	}
}

func TestWalk(t *testing.T) {
	store, library, _ := newTestStore(t)
	a := filepath.Join(library, "Show", "tvshow.nfo")
	b := filepath.Join(library, "Show", "Season 01", "ep.nfo")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	if _, err := store.Create(a); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(b); err != nil {
		t.Fatal(err)
	}

	seen := map[string]string{}
	err := store.Walk(func(backupPath, livePath string) error {
		seen[livePath] = backupPath
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Fatalf("walked %d files, want 2", len(seen))
	}
	if _, ok := seen[a]; !ok {
		t.Errorf("missing live path %q in %v", a, seen)
	}
}
