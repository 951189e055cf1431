// Package media classifies files in a Sonarr-managed library.
//
// The rewriter only touches .nfo sidecars and a fixed set of artwork
// names: poster, clearlogo, season-specials-poster, and seasonNN-poster
// in jpg, jpeg, or png form. Everything else in the library is ignored.
package media
