// Package marker embeds and reads provenance markers inside artwork
// files, identifying which remote image a poster or logo was rewritten
// from. PNG markers live in a named tEXt chunk, JPEG markers in a
// comment segment.
package marker
