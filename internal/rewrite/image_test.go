package rewrite

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/marker"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T, imagesBody string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tv/42/images", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagesBody))
	})
	mux.HandleFunc("/tv/42/season/1/images", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagesBody))
	})
	mux.HandleFunc("/art/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(encodePNG(t))
	})
	return mux
}

const zhPoster = `{"posters":[
  {"file_path":"/art/en.jpg","iso_639_1":"en","iso_3166_1":"US"},
  {"file_path":"/art/zh.png","iso_639_1":"zh","iso_3166_1":"CN"}
],"logos":[
  {"file_path":"/art/logo-zh.png","iso_639_1":"zh","iso_3166_1":"CN"}
]}`

func TestImageRewriteChangesExtension(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	poster := h.write(t, "Show/poster.jpg", "old-jpeg-bytes")

	res := h.rw.ProcessFile(context.Background(), poster)
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	if !res.FileModified {
		t.Error("expected modification")
	}
	if res.Language != "zh-CN" {
		t.Errorf("language = %q", res.Language)
	}

	// Candidate is a png, so the jpg is replaced.
	target := filepath.Join(h.library, "Show", "poster.png")
	m := marker.Read(target)
	if m == nil || m.FilePath != "/art/zh.png" {
		t.Errorf("marker = %+v", m)
	}
	if _, err := os.Stat(poster); !os.IsNotExist(err) {
		t.Error("stale poster.jpg should be removed")
	}

	// Original bytes preserved under the backup root.
	backupData, err := os.ReadFile(filepath.Join(h.backups, "Show", "poster.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(backupData) != "old-jpeg-bytes" {
		t.Errorf("backup = %q", backupData)
	}
}

func TestImageRewriteIdempotent(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	poster := h.write(t, "Show/poster.jpg", "old-jpeg-bytes")

	ctx := context.Background()
	if res := h.rw.ProcessFile(ctx, poster); !res.Success {
		t.Fatalf("first pass: %s", res.Message)
	}

	target := filepath.Join(h.library, "Show", "poster.png")
	second := h.rw.ProcessFile(ctx, target)
	if !second.Success {
		t.Fatalf("second pass: %s", second.Message)
	}
	if second.FileModified {
		t.Error("second pass should be a no-op")
	}
}

func TestImageNoCandidateWithoutBackup(t *testing.T) {
	h := newHarness(t, imageServer(t, `{"posters":[],"logos":[]}`), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	poster := h.write(t, "Show/poster.jpg", "old-jpeg-bytes")

	res := h.rw.ProcessFile(context.Background(), poster)
	if res.Success {
		t.Fatal("expected failure")
	}
	if !contains(res.Message, "preferred languages [zh-CN]") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestImageRevertsWhenCandidateGone(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	poster := h.write(t, "Show/poster.jpg", "old-jpeg-bytes")

	ctx := context.Background()
	if res := h.rw.ProcessFile(ctx, poster); !res.Success {
		t.Fatalf("first pass: %s", res.Message)
	}
	target := filepath.Join(h.library, "Show", "poster.png")

	// A fresh provider with no candidates triggers the revert.
	rw := rebuildImageRewriter(t, h.library, h.backups, `{"posters":[],"logos":[]}`)
	res := rw.ProcessFile(ctx, target)
	if !res.Success {
		t.Fatalf("revert failed: %s", res.Message)
	}
	if !res.FileModified {
		t.Error("revert should modify")
	}

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("rewritten poster.png should be removed")
	}
	data, err := os.ReadFile(poster)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old-jpeg-bytes" {
		t.Errorf("restored content = %q", data)
	}
}

func rebuildImageRewriter(t *testing.T, library, backupDir, imagesBody string) *Rewriter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagesBody))
	})
	return rebuildRewriterWithHandler(t, library, backupDir, mux, []string{"zh-CN"})
}

func TestSeasonPosterUsesSeasonEndpoint(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	poster := h.write(t, "Show/season01-poster.jpg", "old")

	res := h.rw.ProcessFile(context.Background(), poster)
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	if res.Ref == nil || res.Ref.Season == nil || *res.Ref.Season != 1 {
		t.Errorf("ref = %+v", res.Ref)
	}
}

func TestClearlogoUsesLogoPool(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	h.write(t, "Show/tvshow.nfo", showNFO)
	logo := h.write(t, "Show/clearlogo.png", "old")

	res := h.rw.ProcessFile(context.Background(), logo)
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	m := marker.Read(filepath.Join(h.library, "Show", "clearlogo.png"))
	if m == nil || m.FilePath != "/art/logo-zh.png" {
		t.Errorf("marker = %+v", m)
	}
}

func TestUnrecognizedImage(t *testing.T) {
	h := newHarness(t, imageServer(t, zhPoster), []string{"zh-CN"})
	path := h.write(t, "Show/fanart.jpg", "x")

	res := h.rw.ProcessFile(context.Background(), path)
	if res.Success {
		t.Fatal("expected failure")
	}
}
