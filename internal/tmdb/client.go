package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/cache"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
)

// Client talks to the TMDB API. Every lookup is cache-first: a hit
// never touches the network, a miss triggers exactly one round trip
// (or the bounded 429 retry sequence).
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	bearer       bool
	http         *http.Client
	cache        *cache.Store
	retry        RetryPolicy
	logger       *slog.Logger
}

// New builds a Client from configuration. TMDB issues two credential
// shapes: a v4 read access token (a JWT, sent as a bearer header) and
// a v3 API key (sent as a query parameter). The shape is detected from
// the key itself.
func New(cfg *config.Config, store *cache.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.TMDB.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.TMDB.ImageBaseURL, "/"),
		apiKey:       cfg.TMDB.APIKey,
		bearer:       strings.HasPrefix(cfg.TMDB.APIKey, "eyJ"),
		http: &http.Client{
			Timeout: time.Duration(cfg.TMDB.RequestTimeout) * time.Second,
		},
		cache: store,
		retry: RetryPolicy{
			MaxRetries: cfg.TMDB.MaxRetries,
			Initial:    time.Duration(cfg.TMDB.RetryInitialSeconds) * time.Second,
			Max:        time.Duration(cfg.TMDB.RetryMaxSeconds) * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "tmdb"),
	}
}

// Close releases idle HTTP connections. The cache is owned by the
// caller and closed separately.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

type translationsResponse struct {
	Translations []struct {
		ISO6391  string `json:"iso_639_1"`
		ISO31661 string `json:"iso_3166_1"`
		Data     struct {
			Name     string `json:"name"`
			Overview string `json:"overview"`
		} `json:"data"`
	} `json:"translations"`
}

// Translations fetches every localized title/description for ref.
// Entries without a language code, and entries whose title and
// description are both empty, are dropped.
func (c *Client) Translations(ctx context.Context, ref EntityRef) (TranslationSet, error) {
	key := "translations:" + ref.String()
	var cached TranslationSet
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	var resp translationsResponse
	if err := c.getJSON(ctx, ref.apiPath()+"/translations", nil, &resp); err != nil {
		return nil, err
	}

	set := make(TranslationSet)
	for _, tr := range resp.Translations {
		if tr.ISO6391 == "" {
			continue
		}
		title := strings.TrimSpace(tr.Data.Name)
		description := strings.TrimSpace(tr.Data.Overview)
		if title == "" && description == "" {
			continue
		}
		tag := language.Join(tr.ISO6391, tr.ISO31661)
		set[tag] = TranslatedText{Title: title, Description: description, Language: tag}
	}

	if err := c.cache.Set(ctx, key, set); err != nil {
		c.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
	}
	return set, nil
}

type detailsResponse struct {
	Name             string `json:"name"`
	OriginalName     string `json:"original_name"`
	OriginalLanguage string `json:"original_language"`
}

type originalDetails struct {
	Language string `json:"language"`
	Title    string `json:"title"`
}

// OriginalDetails returns the original language and title of ref's
// series. Used when a translation leaves the title empty but the
// original language already matches the preferred one.
func (c *Client) OriginalDetails(ctx context.Context, ref EntityRef) (lang, title string, err error) {
	key := "details:" + ref.String()
	var cached originalDetails
	if hit, cacheErr := c.cache.Get(ctx, key, &cached); cacheErr == nil && hit {
		return cached.Language, cached.Title, nil
	}

	var resp detailsResponse
	if err := c.getJSON(ctx, ref.apiPath(), nil, &resp); err != nil {
		return "", "", err
	}
	title = resp.OriginalName
	if title == "" {
		title = resp.Name
	}

	if err := c.cache.Set(ctx, key, originalDetails{Language: resp.OriginalLanguage, Title: title}); err != nil {
		c.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
	}
	return resp.OriginalLanguage, title, nil
}

type findResponse struct {
	TVResults []struct {
		ID int `json:"id"`
	} `json:"tv_results"`
}

type findResult struct {
	SeriesID int `json:"series_id"`
}

// FindByExternalID resolves a foreign identifier (tvdb_id, imdb_id) to
// a TMDB series id. A zero return means not found; negative results
// are cached so repeated misses stay cheap.
func (c *Client) FindByExternalID(ctx context.Context, externalID, source string) (int, error) {
	key := fmt.Sprintf("find:%s:%s", source, externalID)
	var cached findResult
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.SeriesID, nil
	}

	query := url.Values{"external_source": {source}}
	var resp findResponse
	if err := c.getJSON(ctx, "/find/"+url.PathEscape(externalID), query, &resp); err != nil {
		return 0, err
	}

	var id int
	if len(resp.TVResults) > 0 {
		id = resp.TVResults[0].ID
	}
	if err := c.cache.Set(ctx, key, findResult{SeriesID: id}); err != nil {
		c.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
	}
	return id, nil
}

// ResolveExternalIDs tries each foreign identifier in a fixed order,
// tvdb before imdb, returning the first series id found. Lookup
// failures fall through to the next source.
func (c *Client) ResolveExternalIDs(ctx context.Context, tvdbID int, imdbID string) int {
	if tvdbID != 0 {
		id, err := c.FindByExternalID(ctx, fmt.Sprintf("%d", tvdbID), "tvdb_id")
		if err == nil && id != 0 {
			return id
		}
		if err != nil {
			c.logger.Warn("external id lookup failed",
				logging.String("source", "tvdb_id"), logging.Error(err))
		}
	}
	if imdbID != "" {
		id, err := c.FindByExternalID(ctx, imdbID, "imdb_id")
		if err == nil && id != 0 {
			return id
		}
		if err != nil {
			c.logger.Warn("external id lookup failed",
				logging.String("source", "imdb_id"), logging.Error(err))
		}
	}
	return 0
}

// getJSON performs one cache-missing API call with 429 backoff.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fetch := func() error {
		u := c.baseURL + path
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		if !c.bearer {
			q.Set("api_key", c.apiKey)
		}
		if len(q) > 0 {
			u += "?" + q.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if c.bearer {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request %s: %w", path, err)
		}
		defer resp.Body.Close()

		if err := c.checkStatus(resp, path); err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response %s: %w", path, err)
		}
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("decode response %s: %w", path, err)
		}
		return nil
	}
	return c.retry.Do(ctx, fetch)
}

func (c *Client) checkStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "tmdb", path,
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrAuthentication, "tmdb", path, c.authHint(), nil)
	default:
		// Not retried: only rate limiting earns a backoff loop.
		return fmt.Errorf("tmdb: %s: unexpected status %d", path, resp.StatusCode)
	}
}

// authHint tells the user which credential shape was sent, since TMDB
// rejects a v3 key used as a bearer token (and vice versa) with the
// same status code.
func (c *Client) authHint() string {
	if c.bearer {
		return "credential was sent as a v4 read access token (bearer header); " +
			"if you have a v3 API key, it must not start with 'eyJ'"
	}
	return "credential was sent as a v3 API key (query parameter); " +
		"if you have a v4 read access token, check that it is complete"
}
