package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestSweepDispatchesTargetFiles(t *testing.T) {
	root := t.TempDir()
	seasonDir := filepath.Join(root, "Show", "Season 01")
	if err := os.MkdirAll(seasonDir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "Show", "tvshow.nfo"),
		filepath.Join(seasonDir, "ep.nfo"),
		filepath.Join(root, "Show", "poster.jpg"),
	}
	for _, p := range want {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A video file should never be dispatched.
	if err := os.WriteFile(filepath.Join(seasonDir, "ep.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []string
	s := New(root, time.Hour, nil, func(path string) {
		mu.Lock()
		got = append(got, path)
		mu.Unlock()
	})
	s.Sweep(context.Background())

	sort.Strings(want)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dispatched %q, want %q", got[i], want[i])
		}
	}
}

func TestSweepMissingRootIsNoOp(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"), time.Hour, nil, func(path string) {
		t.Errorf("unexpected dispatch of %q", path)
	})
	s.Sweep(context.Background())
}

func TestStartStop(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "tvshow.nfo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dispatched := make(chan string, 8)
	s := New(root, 50*time.Millisecond, nil, func(path string) {
		select {
		case dispatched <- path:
		default:
		}
	})
	s.Start(context.Background())
	select {
	case <-dispatched:
	case <-time.After(3 * time.Second):
		t.Fatal("initial sweep never dispatched")
	}
	s.Stop()
	s.Stop()
}
