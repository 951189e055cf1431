package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const imagesBody = `{
  "posters":[
    {"file_path":"/null.jpg","iso_639_1":null,"iso_3166_1":null},
    {"file_path":"/en.jpg","iso_639_1":"en","iso_3166_1":"US"},
    {"file_path":"/zh.jpg","iso_639_1":"zh","iso_3166_1":"CN"}
  ],
  "logos":[
    {"file_path":"/logo-en.png","iso_639_1":"en","iso_3166_1":""}
  ]
}`

func TestSelectArtworkPreferenceOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/42/images" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(imagesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	got, err := client.SelectArtwork(context.Background(), SeriesRef(42), ArtworkPoster, []string{"zh-CN", "en-US"})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.FilePath != "/zh.jpg" {
		t.Errorf("candidate = %+v", got)
	}
	if got.LanguageTag() != "zh-CN" {
		t.Errorf("tag = %q", got.LanguageTag())
	}
}

func TestSelectArtworkNoMatchCached(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(imagesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		got, err := client.SelectArtwork(ctx, SeriesRef(42), ArtworkPoster, []string{"ko-KR"})
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("candidate = %+v, want nil", got)
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}

func TestSelectArtworkSeasonEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(imagesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	if _, err := client.SelectArtwork(context.Background(), SeasonRef(42, 1), ArtworkPoster, []string{"en-US"}); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/tv/42/season/1/images" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSelectArtworkCachedPerSeason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/42/season/1/images":
			w.Write([]byte(`{"posters":[{"file_path":"/s1.jpg","iso_639_1":"zh","iso_3166_1":"CN"}]}`))
		case "/tv/42/season/2/images":
			w.Write([]byte(`{"posters":[{"file_path":"/s2.jpg","iso_639_1":"zh","iso_3166_1":"CN"}]}`))
		case "/tv/42/images":
			w.Write([]byte(`{"posters":[{"file_path":"/series.jpg","iso_639_1":"zh","iso_3166_1":"CN"}]}`))
		default:
			t.Errorf("path = %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	ctx := context.Background()
	preferred := []string{"zh-CN"}

	want := map[string]EntityRef{
		"/s1.jpg":     SeasonRef(42, 1),
		"/series.jpg": SeriesRef(42),
		"/s2.jpg":     SeasonRef(42, 2),
	}
	// Two rounds: the second is served from cache and must still be
	// scoped to the right season.
	for round := 0; round < 2; round++ {
		for file, ref := range want {
			got, err := client.SelectArtwork(ctx, ref, ArtworkPoster, preferred)
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || got.FilePath != file {
				t.Errorf("round %d: %s selected %+v, want %s", round, ref, got, file)
			}
		}
	}
}

func TestSelectArtworkLogos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagesBody))
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	got, err := client.SelectArtwork(context.Background(), SeriesRef(42), ArtworkLogo, []string{"en"})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.FilePath != "/logo-en.png" {
		t.Errorf("candidate = %+v", got)
	}
}

func TestDownloadArtworkRetriesTransient(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	data, err := client.DownloadArtwork(context.Background(), ArtworkCandidate{FilePath: "/zh.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("data = %q", data)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d", attempts)
	}
}

func TestDownloadArtworkPermanentFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server, "v3key")
	if _, err := client.DownloadArtwork(context.Background(), ArtworkCandidate{FilePath: "/x.jpg"}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
