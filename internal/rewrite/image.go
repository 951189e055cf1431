package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/logging"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/marker"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/media"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/nfo"
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
)

func (r *Rewriter) processImage(ctx context.Context, path string) Result {
	res, err := r.rewriteImage(ctx, path)
	if err != nil {
		logging.WithContext(ctx, r.logger).Error("image processing failed",
			logging.String(logging.FieldPath, path), logging.Error(err))
		return failure(path, fmt.Sprintf("processing error: %v", err))
	}
	return res
}

func (r *Rewriter) rewriteImage(ctx context.Context, path string) (Result, error) {
	name, ok := media.ParseImageName(filepath.Base(path))
	if !ok {
		return failure(path, fmt.Sprintf("unrecognized image file: %s", filepath.Base(path))), nil
	}

	ref := r.imageEntityRef(ctx, path, name)
	if ref == nil {
		return failure(path, "could not resolve series identifier for image"), nil
	}

	kind := tmdb.ArtworkPoster
	if name.Kind == media.ImageClearLogo {
		kind = tmdb.ArtworkLogo
	}
	candidate, err := r.client.SelectArtwork(ctx, *ref, kind, r.cfg.Rewrite.PreferredLanguages)
	if err != nil {
		return Result{}, err
	}

	if candidate == nil {
		return r.revertImage(path, name, ref)
	}

	// The embedded marker is the sole idempotence signal: matching
	// file paths mean this exact candidate is already on disk.
	if current := marker.Read(path); current != nil && current.FilePath == candidate.FilePath {
		return Result{
			Success:  true,
			Path:     path,
			Message:  fmt.Sprintf("%s already matches selected candidate (%s)", name.Kind, candidate.LanguageTag()),
			Ref:      ref,
			Language: candidate.LanguageTag(),
		}, nil
	}

	backupCreated, err := r.backups.Create(path)
	if err != nil {
		return Result{}, err
	}

	data, err := r.client.DownloadArtwork(ctx, *candidate)
	if err != nil {
		return Result{}, err
	}

	ext := strings.ToLower(filepath.Ext(candidate.FilePath))
	if !media.IsImageExtension(ext) {
		return Result{}, fmt.Errorf("unsupported image format from provider: %s", ext)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	target := filepath.Join(filepath.Dir(path), stem+ext)

	embedded := marker.Embed(data, marker.Marker{
		FilePath: candidate.FilePath,
		ISO6391:  candidate.ISO6391,
		ISO31661: candidate.ISO31661,
	})
	if err := r.writeAtomic(target, embedded); err != nil {
		return Result{}, err
	}
	// The rewrite may change the extension; drop the stale file once
	// the new one is in place.
	if target != path {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return Result{}, err
		}
	}

	return Result{
		Success:       true,
		Path:          target,
		Message:       fmt.Sprintf("%s rewritten with %s version", name.Kind, candidate.LanguageTag()),
		Ref:           ref,
		BackupCreated: backupCreated,
		FileModified:  true,
		Language:      candidate.LanguageTag(),
	}, nil
}

// revertImage handles the no-candidate outcome. A live file carrying a
// marker while its backup carries none was rewritten by us and gets
// restored; a markerless live file is already original.
func (r *Rewriter) revertImage(path string, name media.ImageName, ref *tmdb.EntityRef) (Result, error) {
	preferred := strings.Join(r.cfg.Rewrite.PreferredLanguages, ", ")

	backupPath := r.backups.Locate(path)
	if backupPath != "" {
		if _, err := os.Stat(path); err == nil {
			current := marker.Read(path)
			if current != nil && marker.Read(backupPath) == nil {
				if _, err := r.backups.Restore(path); err != nil {
					return Result{}, err
				}
				return Result{
					Success:      true,
					Path:         path,
					Message:      fmt.Sprintf("reverted %s to original - no image available in preferred languages [%s]", name.Kind, preferred),
					Ref:          ref,
					FileModified: true,
					Language:     language.Original,
				}, nil
			}
			if current == nil {
				return Result{
					Path:    path,
					Message: fmt.Sprintf("file unchanged - already original and no %s available in preferred languages [%s]", name.Kind, preferred),
					Ref:     ref,
				}, nil
			}
		}
	}

	return Result{
		Path:    path,
		Message: fmt.Sprintf("no %s available in preferred languages [%s]", name.Kind, preferred),
		Ref:     ref,
	}, nil
}

// imageEntityRef resolves the provider reference for an image. Season
// artwork prefers a season sidecar in the same directory before
// falling back to the ancestor series sidecar.
func (r *Rewriter) imageEntityRef(ctx context.Context, path string, name media.ImageName) *tmdb.EntityRef {
	dir := filepath.Dir(path)

	if name.Season != nil {
		if ids := loadSidecarIDs(filepath.Join(dir, "season.nfo")); ids != nil && ids.TMDB != 0 {
			ref := tmdb.SeasonRef(ids.TMDB, *name.Season)
			return &ref
		}
	}

	ids := findSeriesSidecar(dir)
	if ids == nil {
		return nil
	}
	seriesID := ids.TMDB
	if seriesID == 0 {
		seriesID = r.client.ResolveExternalIDs(ctx, ids.TVDB, ids.IMDB)
	}
	if seriesID == 0 {
		return nil
	}
	if name.Season != nil {
		ref := tmdb.SeasonRef(seriesID, *name.Season)
		return &ref
	}
	ref := tmdb.SeriesRef(seriesID)
	return &ref
}

func loadSidecarIDs(path string) *nfo.IDs {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil
	}
	doc, err := nfo.Load(path)
	if err != nil {
		return nil
	}
	ids := nfo.ExtractIDs(doc.Root())
	return &ids
}
