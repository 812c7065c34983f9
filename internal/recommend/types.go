package recommend

import (
	"context"

	"morelikethis/internal/gemini"
	"morelikethis/internal/media"
)

// Lookup resolves canonical records and their TMDB neighbours.
type Lookup interface {
	ResolveByExternalID(ctx context.Context, imdbID, apiKey string) media.Lookup[media.Record]
	FetchSimilar(ctx context.Context, rec media.Record, apiKey string) media.Lookup[[]media.Record]
}

// Suggester produces free-text title suggestions.
type Suggester interface {
	Suggest(ctx context.Context, req gemini.Request) media.Lookup[[]media.Suggestion]
}

// Reconciler maps suggestions to catalogue entries.
type Reconciler interface {
	Reconcile(ctx context.Context, candidates []media.Suggestion, fallback media.Kind, apiKey string) []media.Entry
}

// Keys carries the caller's upstream credentials.
type Keys struct {
	TMDB   string
	Gemini string
}

// AI holds the generative settings of a request. Zero values select the
// service defaults.
type AI struct {
	Model  string
	Count  int
	Filter media.ContentFilter
}

// TitleRequest asks for recommendations seeded by one title.
type TitleRequest struct {
	ExternalID string
	Kind       media.Kind
	Keys       Keys
	AI         AI
}

// GeneralRequest asks for a seedless list of acclaimed titles.
type GeneralRequest struct {
	Kind media.Kind
	Keys Keys
	AI   AI
}

// TitleResult is the payload cached per source title.
type TitleResult struct {
	ExternalID  string        `json:"imdbId"`
	SourceTitle string        `json:"title"`
	Kind        media.Kind    `json:"type"`
	Entries     []media.Entry `json:"entries"`
}

// GeneralResult is the payload cached per general request.
type GeneralResult struct {
	Kind    media.Kind    `json:"type"`
	Entries []media.Entry `json:"entries"`
}

// Defaults fill in request settings the caller left empty.
type Defaults struct {
	Model  string
	Count  int
	Filter media.ContentFilter
}
