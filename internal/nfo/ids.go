package nfo

import (
	"strconv"
	"strings"
)

// IDs holds every provider identifier found in a sidecar entry. Zero
// values mean the identifier was absent.
type IDs struct {
	TMDB int
	TVDB int
	IMDB string
}

// ExtractIDs scans an entry's uniqueid elements. Malformed numeric ids
// are skipped rather than reported; the resolver falls through to the
// next identifier source.
func ExtractIDs(root *Element) IDs {
	var ids IDs
	for _, uid := range root.Descendants("uniqueid") {
		value := uid.Text()
		if value == "" {
			continue
		}
		switch strings.ToLower(uid.Attr("type")) {
		case "tmdb":
			if n, err := strconv.Atoi(value); err == nil && ids.TMDB == 0 {
				ids.TMDB = n
			}
		case "tvdb":
			if n, err := strconv.Atoi(value); err == nil && ids.TVDB == 0 {
				ids.TVDB = n
			}
		case "imdb":
			if ids.IMDB == "" {
				ids.IMDB = value
			}
		}
	}
	return ids
}

// SeasonEpisode reads the season and episode numbers from an episode
// entry. ok is false when either is missing or non-numeric; per policy
// a partially identified episode is treated as not found, not as an
// error.
func SeasonEpisode(root *Element) (season, episode int, ok bool) {
	se := root.Find("season")
	ep := root.Find("episode")
	if se == nil || ep == nil {
		return 0, 0, false
	}
	season, err := strconv.Atoi(se.Text())
	if err != nil {
		return 0, 0, false
	}
	episode, err = strconv.Atoi(ep.Text())
	if err != nil {
		return 0, 0, false
	}
	return season, episode, true
}
