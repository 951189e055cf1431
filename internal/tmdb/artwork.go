package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
)

// ArtworkKind names a provider artwork slot.
type ArtworkKind string

const (
	ArtworkPoster ArtworkKind = "poster"
	ArtworkLogo   ArtworkKind = "clearlogo"
)

type imagesResponse struct {
	Posters []artworkJSON `json:"posters"`
	Logos   []artworkJSON `json:"logos"`
}

type artworkJSON struct {
	FilePath string `json:"file_path"`
	ISO6391  string `json:"iso_639_1"`
	ISO31661 string `json:"iso_3166_1"`
}

type selectedArtwork struct {
	Candidate *ArtworkCandidate `json:"candidate"`
}

// SelectArtwork returns the best candidate of the given kind for ref:
// the first candidate, in preference order, whose language tag matches.
// Candidates without a language are skipped. A nil candidate with nil
// error means nothing matched; that outcome is cached too.
func (c *Client) SelectArtwork(ctx context.Context, ref EntityRef, kind ArtworkKind, preferred []string) (*ArtworkCandidate, error) {
	key := fmt.Sprintf("artwork:%s:%s:%s", kind, ref.String(), strings.Join(preferred, ","))
	var cached selectedArtwork
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Candidate, nil
	}

	path := ref.apiPath() + "/images"
	var resp imagesResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	pool := resp.Posters
	if kind == ArtworkLogo {
		pool = resp.Logos
	}
	selected := selectByPreference(pool, preferred)

	if err := c.cache.Set(ctx, key, selectedArtwork{Candidate: selected}); err != nil {
		c.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
	}
	return selected, nil
}

func selectByPreference(pool []artworkJSON, preferred []string) *ArtworkCandidate {
	for _, want := range preferred {
		for _, img := range pool {
			if img.ISO6391 == "" {
				continue
			}
			if language.Join(img.ISO6391, img.ISO31661) == want {
				return &ArtworkCandidate{
					FilePath: img.FilePath,
					ISO6391:  img.ISO6391,
					ISO31661: img.ISO31661,
				}
			}
		}
	}
	return nil
}

// DownloadArtwork fetches the raw bytes of a candidate from the image
// base URL, retrying transient transport failures.
func (c *Client) DownloadArtwork(ctx context.Context, candidate ArtworkCandidate) ([]byte, error) {
	u := c.imageBaseURL + candidate.FilePath
	var data []byte
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "tmdb", "download", u, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return services.Wrap(services.ErrRateLimited, "tmdb", "download", u, nil)
		case resp.StatusCode >= 500:
			return services.Wrap(services.ErrTransient, "tmdb", "download",
				fmt.Sprintf("%s: status %d", u, resp.StatusCode), nil)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("tmdb: download %s: unexpected status %d", u, resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrTransient, "tmdb", "download", u, err)
		}
		return nil
	}
	if err := c.retry.Do(ctx, fetch); err != nil {
		return nil, err
	}
	return data, nil
}
