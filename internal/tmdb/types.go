package tmdb

import (
	"fmt"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/language"
)

// EntityRef identifies a series or one of its episodes on the
// provider. An episode number is meaningless without its season, so
// the episode form always carries both. Immutable once built.
type EntityRef struct {
	SeriesID int
	Season   *int
	Episode  *int
}

// SeriesRef builds a reference to a whole series.
func SeriesRef(seriesID int) EntityRef {
	return EntityRef{SeriesID: seriesID}
}

// SeasonRef builds a reference scoped to one season, used for
// season-level artwork.
func SeasonRef(seriesID, season int) EntityRef {
	return EntityRef{SeriesID: seriesID, Season: &season}
}

// EpisodeRef builds a reference to a single episode.
func EpisodeRef(seriesID, season, episode int) EntityRef {
	return EntityRef{SeriesID: seriesID, Season: &season, Episode: &episode}
}

// IsEpisode reports whether the reference names a single episode.
func (r EntityRef) IsEpisode() bool {
	return r.Season != nil && r.Episode != nil
}

// String returns the canonical form, which doubles as the cache key:
// series/{id}, series/{id}/season/{s}, or
// series/{id}/season/{s}/episode/{e}. Every scope the reference
// carries must appear here, or differently scoped lookups would share
// a cache entry.
func (r EntityRef) String() string {
	switch {
	case r.IsEpisode():
		return fmt.Sprintf("series/%d/season/%d/episode/%d", r.SeriesID, *r.Season, *r.Episode)
	case r.Season != nil:
		return fmt.Sprintf("series/%d/season/%d", r.SeriesID, *r.Season)
	default:
		return fmt.Sprintf("series/%d", r.SeriesID)
	}
}

// apiPath returns the provider's resource path for the reference.
func (r EntityRef) apiPath() string {
	switch {
	case r.IsEpisode():
		return fmt.Sprintf("/tv/%d/season/%d/episode/%d", r.SeriesID, *r.Season, *r.Episode)
	case r.Season != nil:
		return fmt.Sprintf("/tv/%d/season/%d", r.SeriesID, *r.Season)
	default:
		return fmt.Sprintf("/tv/%d", r.SeriesID)
	}
}

// TranslatedText is one localized (title, description) pair. An empty
// field is valid and means "fall back to the original for this field",
// never that the whole record is absent.
type TranslatedText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// TranslationSet maps language tags to translated text, produced by
// one provider call. A fresh fetch fully replaces any cached value for
// the same reference.
type TranslationSet map[string]TranslatedText

// ArtworkCandidate is one selectable remote image, tagged with the
// language and region the provider filed it under.
type ArtworkCandidate struct {
	FilePath string `json:"file_path"`
	ISO6391  string `json:"iso_639_1"`
	ISO31661 string `json:"iso_3166_1"`
}

// LanguageTag returns the candidate's combined tag, e.g. "zh-CN".
func (c ArtworkCandidate) LanguageTag() string {
	return language.Join(c.ISO6391, c.ISO31661)
}
