package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"morelikethis/internal/logging"
	"morelikethis/internal/media"
	"morelikethis/internal/services"
)

// SimilarLimit caps how many TMDB similar titles are cross-referenced.
const SimilarLimit = 10

// API is the subset of Client the Resolver depends on.
type API interface {
	Find(ctx context.Context, apiKey, imdbID string) (*FindResponse, error)
	Similar(ctx context.Context, apiKey, kindPath string, id int64) (*Response, error)
	ExternalIDs(ctx context.Context, apiKey, kindPath string, id int64) (*ExternalIDs, error)
	Search(ctx context.Context, apiKey, kindPath, query string, year int) (*Response, error)
	PosterURL(path string) string
}

// Resolver maps between IMDb identifiers and TMDB records.
type Resolver struct {
	api         API
	logger      *slog.Logger
	concurrency int
}

// NewResolver wraps api with lookups that report media.Lookup outcomes.
func NewResolver(api API, logger *slog.Logger) *Resolver {
	return &Resolver{
		api:         api,
		logger:      logging.NewComponentLogger(logger, "tmdb"),
		concurrency: SimilarLimit,
	}
}

// ResolveByExternalID finds the canonical record for an IMDb identifier.
// Movie matches win over TV matches.
func (r *Resolver) ResolveByExternalID(ctx context.Context, imdbID, apiKey string) media.Lookup[media.Record] {
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldExternalID, imdbID))
	resp, err := r.api.Find(ctx, apiKey, imdbID)
	if err != nil {
		r.warn(ctx, logger, "tmdb find failed", "tmdb_find_failed", err)
		return media.Failed[media.Record](err)
	}
	switch {
	case len(resp.MovieResults) > 0:
		return media.Found(r.record(imdbID, media.KindMovie, resp.MovieResults[0]))
	case len(resp.TVResults) > 0:
		return media.Found(r.record(imdbID, media.KindSeries, resp.TVResults[0]))
	}
	logger.Debug("imdb id unknown to tmdb")
	return media.NotFound[media.Record]()
}

// FetchSimilar returns up to SimilarLimit titles TMDB considers similar to
// rec, in TMDB order. Entries without an IMDb cross-reference are skipped.
func (r *Resolver) FetchSimilar(ctx context.Context, rec media.Record, apiKey string) media.Lookup[[]media.Record] {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String(logging.FieldExternalID, rec.ExternalID),
		logging.String(logging.FieldKind, string(rec.Kind)),
	)
	kindPath := rec.Kind.TMDBPath()
	resp, err := r.api.Similar(ctx, apiKey, kindPath, rec.InternalID)
	if err != nil {
		r.warn(ctx, logger, "tmdb similar failed", "tmdb_similar_failed", err)
		return media.Failed[[]media.Record](err)
	}
	results := resp.Results
	if len(results) > SimilarLimit {
		results = results[:SimilarLimit]
	}

	slots := make([]*media.Record, len(results))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, result := range results {
		g.Go(func() error {
			ids, err := r.api.ExternalIDs(ctx, apiKey, kindPath, result.ID)
			if err != nil {
				logger.Debug("external ids lookup failed",
					logging.Int64("tmdb_id", result.ID),
					logging.Error(err),
				)
				return nil
			}
			imdbID := strings.TrimSpace(ids.IMDbID)
			if imdbID == "" {
				return nil
			}
			record := r.record(imdbID, rec.Kind, result)
			slots[i] = &record
			return nil
		})
	}
	// Workers leave a failed slot empty and always return nil.
	_ = g.Wait()

	records := make([]media.Record, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			records = append(records, *slot)
		}
	}
	return media.Found(records)
}

// SearchByTitleYearKind resolves a free-text title to its top TMDB match and
// that match's IMDb identifier. A zero year searches without a year filter.
func (r *Resolver) SearchByTitleYearKind(ctx context.Context, title string, year int, kind media.Kind, apiKey string) media.Lookup[media.Record] {
	logger := logging.WithContext(ctx, r.logger).With(
		logging.String("title", title),
		logging.Int("year", year),
		logging.String(logging.FieldKind, string(kind)),
	)
	kindPath := kind.TMDBPath()
	resp, err := r.api.Search(ctx, apiKey, kindPath, title, year)
	if err != nil {
		logger.Debug("tmdb search failed", logging.Error(err))
		return media.Failed[media.Record](err)
	}
	if len(resp.Results) == 0 {
		logger.Debug("no tmdb search match")
		return media.NotFound[media.Record]()
	}
	top := resp.Results[0]
	ids, err := r.api.ExternalIDs(ctx, apiKey, kindPath, top.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return media.NotFound[media.Record]()
		}
		logger.Debug("external ids lookup failed", logging.Int64("tmdb_id", top.ID), logging.Error(err))
		return media.Failed[media.Record](err)
	}
	imdbID := strings.TrimSpace(ids.IMDbID)
	if imdbID == "" {
		logger.Debug("tmdb match has no imdb id", logging.Int64("tmdb_id", top.ID))
		return media.NotFound[media.Record]()
	}
	return media.Found(r.record(imdbID, kind.Or(media.KindMovie), top))
}

func (r *Resolver) record(imdbID string, kind media.Kind, result Result) media.Record {
	return media.Record{
		ExternalID: imdbID,
		InternalID: result.ID,
		Kind:       kind,
		Title:      result.DisplayTitle(),
		PosterURL:  r.api.PosterURL(result.PosterPath),
	}
}

func (r *Resolver) warn(ctx context.Context, logger *slog.Logger, msg, eventType string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		logger.Debug(msg, logging.Error(err))
		return
	}
	hint := "check TMDB availability and the api key"
	if errors.Is(err, services.ErrConfiguration) {
		hint = "configure a TMDB api key"
	}
	logging.WarnWithContext(logger, msg, eventType,
		logging.String("error_kind", services.Classify(err)),
		logging.String(logging.FieldErrorHint, hint),
		logging.Error(err),
	)
}
