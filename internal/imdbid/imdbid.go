// Package imdbid normalizes IMDb identifiers received from Stremio clients.
//
// Series episodes arrive as "tt1234567:1:2" (id:season:episode); every TMDB
// lookup needs the bare "tt1234567" form.
package imdbid

import "regexp"

var basePattern = regexp.MustCompile(`^tt\d+`)

// Base returns the leading tt-prefixed identifier. Inputs without that prefix
// are returned unchanged, and empty input yields "".
func Base(id string) string {
	if id == "" {
		return ""
	}
	if match := basePattern.FindString(id); match != "" {
		return match
	}
	return id
}

// Valid reports whether id starts with a tt-prefixed identifier.
func Valid(id string) bool {
	return basePattern.MatchString(id)
}
