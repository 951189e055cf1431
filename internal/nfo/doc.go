// Package nfo parses and rewrites the .nfo XML sidecars Sonarr writes
// alongside media files.
//
// Two dialects are supported: Kodi (tvshow/episodedetails roots with a
// plot element) and Emby (series/episode roots, or Kodi roots carrying
// an overview element). Detection tries the structurally specific Emby
// shape first.
//
// Parsing keeps character data and comments in place so untouched parts
// of a document serialize back unchanged. Multi-episode sidecars with
// several sibling episodedetails roots parse into one Document with
// multiple entries.
package nfo
