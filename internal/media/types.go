package media

import "strings"

// Kind identifies the media type of a title.
type Kind string

const (
	KindUnknown Kind = ""
	KindMovie   Kind = "movie"
	KindSeries  Kind = "series"
)

// ParseKind maps loose type labels (including TMDB's "tv") onto a Kind.
func ParseKind(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies", "film":
		return KindMovie
	case "series", "tv", "show", "tv series", "tv show":
		return KindSeries
	default:
		return KindUnknown
	}
}

// Valid reports whether k is a concrete media kind.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindSeries
}

// Or returns k when it is concrete, otherwise fallback.
func (k Kind) Or(fallback Kind) Kind {
	if k.Valid() {
		return k
	}
	return fallback
}

// TMDBPath returns the TMDB path segment for the kind.
func (k Kind) TMDBPath() string {
	if k == KindSeries {
		return "tv"
	}
	return "movie"
}

// Label returns a human readable singular label.
func (k Kind) Label() string {
	if k == KindSeries {
		return "TV series"
	}
	return "movie"
}

// ContentFilter selects whether recommendations must match the source kind.
type ContentFilter string

const (
	FilterSame ContentFilter = "same"
	FilterAll  ContentFilter = "all"
)

// ParseContentFilter falls back to FilterSame for unrecognised values.
func ParseContentFilter(value string) ContentFilter {
	if strings.EqualFold(strings.TrimSpace(value), string(FilterAll)) {
		return FilterAll
	}
	return FilterSame
}

// Record is a canonical TMDB entry.
type Record struct {
	ExternalID string
	InternalID int64
	Kind       Kind
	Title      string
	PosterURL  string
}

// Suggestion is an unverified title proposed by the generative model.
type Suggestion struct {
	Title string
	Year  int
	Kind  Kind
}

// Entry is a reconciled recommendation. ExternalID always originates from TMDB.
type Entry struct {
	Title      string `json:"title"`
	ExternalID string `json:"imdbId"`
	Kind       Kind   `json:"type"`
	PosterURL  string `json:"poster,omitempty"`
	Year       int    `json:"year,omitempty"`
}
