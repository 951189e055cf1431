// Command sonarr-metadata-rewrite localizes Sonarr-written NFO metadata
// and artwork using TMDB translations.
package main
