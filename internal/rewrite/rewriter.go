package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/backup"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/config"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/fileutil"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/media"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/nfo"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
)

const parseRetryInterval = 500 * time.Millisecond

// Rewriter routes a target file to the matching pipeline. It must be
// safely callable from multiple goroutines: the watcher and the
// scanner both dispatch into it, and correctness under concurrent
// invocation relies on idempotence checks plus atomic renames, not on
// per-path locking.
type Rewriter struct {
	cfg     *config.Config
	client  *tmdb.Client
	backups *backup.Store
	logger  *slog.Logger
}

// New builds a Rewriter sharing the given provider client and backup
// store.
func New(cfg *config.Config, client *tmdb.Client, backups *backup.Store, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Rewriter{
		cfg:     cfg,
		client:  client,
		backups: backups,
		logger:  logging.NewComponentLogger(logger, "rewrite"),
	}
}

// ProcessFile runs the appropriate pipeline for path. Every error is
// converted into a failure Result at this boundary.
func (r *Rewriter) ProcessFile(ctx context.Context, path string) Result {
	switch {
	case media.IsNFO(path):
		return r.processNFO(ctx, path)
	case media.IsRewritableImage(path):
		if !r.cfg.Rewrite.Images {
			return failure(path, "image rewriting is disabled")
		}
		return r.processImage(ctx, path)
	default:
		return failure(path, fmt.Sprintf("not a rewritable file: %s", filepath.Base(path)))
	}
}

// loadDocument parses the sidecar at path, retrying briefly since
// Sonarr may still be writing it.
func (r *Rewriter) loadDocument(ctx context.Context, path string) (*nfo.Document, error) {
	timeout := time.Duration(r.cfg.Rewrite.ParseRetrySeconds) * time.Second
	return nfo.LoadWithRetry(ctx, path, timeout, parseRetryInterval)
}

// resolveSeriesID runs the hierarchical id resolution for one sidecar
// entry: a direct provider id wins; episode entries then consult an
// ancestor series sidecar; finally foreign ids are resolved through
// the provider, the entry's own before the ancestor's.
func (r *Rewriter) resolveSeriesID(ctx context.Context, root *nfo.Element, path string) int {
	ids := nfo.ExtractIDs(root)
	if ids.TMDB != 0 {
		return ids.TMDB
	}

	var parentIDs *nfo.IDs
	if nfo.Type(root) == nfo.DocEpisode {
		if parent := findSeriesSidecar(filepath.Dir(path)); parent != nil {
			if parent.TMDB != 0 {
				return parent.TMDB
			}
			parentIDs = parent
		}
	}

	if id := r.client.ResolveExternalIDs(ctx, ids.TVDB, ids.IMDB); id != 0 {
		return id
	}
	if parentIDs != nil {
		if id := r.client.ResolveExternalIDs(ctx, parentIDs.TVDB, parentIDs.IMDB); id != 0 {
			return id
		}
	}
	return 0
}

const seriesSearchDepth = 3

// findSeriesSidecar walks up from dir looking for a tvshow.nfo, up to
// a bounded depth. Sonarr keeps the series sidecar at the show root,
// at most a season folder (or two) above an episode.
func findSeriesSidecar(dir string) *nfo.IDs {
	for i := 0; i < seriesSearchDepth; i++ {
		candidate := filepath.Join(dir, "tvshow.nfo")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			if doc, err := nfo.Load(candidate); err == nil && nfo.Type(doc.Root()) == nfo.DocSeries {
				ids := nfo.ExtractIDs(doc.Root())
				return &ids
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}

// entityRef builds the provider reference for one entry, or nil when
// the entry cannot be identified. A series id with missing season or
// episode numbers is "not found", not an error.
func (r *Rewriter) entityRef(ctx context.Context, root *nfo.Element, path string) *tmdb.EntityRef {
	seriesID := r.resolveSeriesID(ctx, root, path)
	if seriesID == 0 {
		return nil
	}
	switch nfo.Type(root) {
	case nfo.DocSeries:
		ref := tmdb.SeriesRef(seriesID)
		return &ref
	case nfo.DocEpisode:
		season, episode, ok := nfo.SeasonEpisode(root)
		if !ok {
			return nil
		}
		ref := tmdb.EpisodeRef(seriesID, season, episode)
		return &ref
	default:
		return nil
	}
}

func (r *Rewriter) writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return fileutil.WriteFileAtomic(path, data, mode)
}
