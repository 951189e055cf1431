package media

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ImageKind identifies which artwork slot an image file fills.
type ImageKind string

const (
	ImagePoster    ImageKind = "poster"
	ImageClearLogo ImageKind = "clearlogo"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var seasonPosterPattern = regexp.MustCompile(`^season(\d+)-poster$`)

// ImageName describes a recognized artwork file name.
type ImageName struct {
	Kind ImageKind
	// Season is nil for series-level artwork, 0 for the specials season.
	Season *int
}

// ParseImageName classifies an image file name by its stem. The second
// return value is false when the name is not one the rewriter manages.
func ParseImageName(name string) (ImageName, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := imageExtensions[ext]; !ok {
		return ImageName{}, false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	switch stem {
	case "poster":
		return ImageName{Kind: ImagePoster}, true
	case "clearlogo":
		return ImageName{Kind: ImageClearLogo}, true
	case "season-specials-poster":
		zero := 0
		return ImageName{Kind: ImagePoster, Season: &zero}, true
	}
	if m := seasonPosterPattern.FindStringSubmatch(stem); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return ImageName{}, false
		}
		return ImageName{Kind: ImagePoster, Season: &n}, true
	}
	return ImageName{}, false
}

// IsNFO reports whether path names an .nfo metadata sidecar.
func IsNFO(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".nfo")
}

// IsImageExtension reports whether ext (with leading dot) is a
// supported artwork format.
func IsImageExtension(ext string) bool {
	_, ok := imageExtensions[strings.ToLower(ext)]
	return ok
}

// IsRewritableImage reports whether path names artwork the rewriter
// manages.
func IsRewritableImage(path string) bool {
	_, ok := ParseImageName(filepath.Base(path))
	return ok
}

// IsTargetFile reports whether path is either an .nfo sidecar or a
// managed artwork file.
func IsTargetFile(path string) bool {
	return IsNFO(path) || IsRewritableImage(path)
}

// FindTargetFiles walks root and returns every target file beneath it,
// sorted for deterministic processing order.
func FindTargetFiles(root string) ([]string, error) {
	var targets []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if IsTargetFile(path) {
			targets = append(targets, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(targets)
	return targets, nil
}
