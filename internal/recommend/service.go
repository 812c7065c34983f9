package recommend

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"morelikethis/internal/gemini"
	"morelikethis/internal/imdbid"
	"morelikethis/internal/logging"
	"morelikethis/internal/media"
	"morelikethis/internal/memo"
	"morelikethis/internal/services"
)

// Service answers recommendation requests, memoizing each outcome for the
// configured window.
type Service struct {
	lookup     Lookup
	suggester  Suggester
	reconciler Reconciler
	defaults   Defaults
	logger     *slog.Logger

	titles  *memo.Cache[TitleResult]
	general *memo.Cache[GeneralResult]
	similar *memo.Cache[TitleResult]
}

// New wires a Service from its collaborators.
func New(lookup Lookup, suggester Suggester, reconciler Reconciler, opts ...Option) *Service {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	cacheOpts := s.cacheOptions()
	return &Service{
		lookup:     lookup,
		suggester:  suggester,
		reconciler: reconciler,
		defaults:   s.defaults.normalized(),
		logger:     logging.NewComponentLogger(s.logger, "recommend"),
		titles:     memo.New[TitleResult]("title", cacheOpts...),
		general:    memo.New[GeneralResult]("general", cacheOpts...),
		similar:    memo.New[TitleResult]("similar", cacheOpts...),
	}
}

// TitleRecommendations returns generated recommendations for the title
// behind req.ExternalID. The boolean is false when no TMDB key was supplied or
// the title could not be resolved; those outcomes are not cached.
func (s *Service) TitleRecommendations(ctx context.Context, req TitleRequest) (TitleResult, bool) {
	id := imdbid.Base(strings.TrimSpace(req.ExternalID))
	keys := trimKeys(req.Keys)
	if id == "" || keys.TMDB == "" {
		return TitleResult{}, false
	}
	ai := s.resolveAI(req.AI)
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldExternalID, id),
		logging.String(logging.FieldKind, string(req.Kind)),
	)

	key := titleKey(id, keys, req.Kind, ai)
	if cached, ok := s.titles.Get(key); ok {
		logger.Debug("title recommendations served from cache", logging.Int("entries", len(cached.Entries)))
		return cached, true
	}

	resolved := s.lookup.ResolveByExternalID(ctx, id, keys.TMDB)
	if !resolved.OK() {
		logger.Debug("source title unresolved", logging.String("status", resolved.Status.String()))
		return TitleResult{}, false
	}
	source := resolved.Value
	kind := req.Kind.Or(source.Kind)

	entries := []media.Entry{}
	var suggestErr error
	if keys.Gemini != "" {
		suggested := s.suggester.Suggest(ctx, gemini.Request{
			APIKey:      keys.Gemini,
			Model:       ai.Model,
			SourceTitle: source.Title,
			Kind:        kind,
			Count:       ai.Count,
			Filter:      ai.Filter,
		})
		if suggested.OK() {
			entries = s.reconciler.Reconcile(ctx, suggested.Value, kind, keys.TMDB)
		} else {
			suggestErr = suggested.Err
			s.warnSuggest(ctx, logger, suggestErr)
		}
	} else {
		logger.Debug("no gemini key; title recommendations empty")
	}

	result := TitleResult{
		ExternalID:  id,
		SourceTitle: source.Title,
		Kind:        kind,
		Entries:     entries,
	}
	if storable(ctx, suggestErr) {
		s.titles.Set(key, result)
	} else {
		logger.Debug("title recommendations not cached", logging.String("reason", skipReason(ctx, suggestErr)))
	}
	logger.Info("title recommendations ready",
		logging.String("title", source.Title),
		logging.Int("entries", len(entries)),
	)
	return result, true
}

// GeneralRecommendations returns a seedless list of acclaimed titles of
// req.Kind. Results, empty ones included, are shared by every caller with the
// same kind, model and count, unless the caller went away or the circuit was open.
func (s *Service) GeneralRecommendations(ctx context.Context, req GeneralRequest) GeneralResult {
	kind := req.Kind.Or(media.KindMovie)
	keys := trimKeys(req.Keys)
	ai := s.resolveAI(req.AI)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldKind, string(kind)))

	key := generalKey(kind, ai)
	if cached, ok := s.general.Get(key); ok {
		logger.Debug("general recommendations served from cache", logging.Int("entries", len(cached.Entries)))
		return cached
	}

	// The key carries no credentials, so keyless outcomes stay uncached.
	if keys.Gemini == "" || keys.TMDB == "" {
		logger.Debug("missing api key; general recommendations empty")
		return GeneralResult{Kind: kind, Entries: []media.Entry{}}
	}

	entries := []media.Entry{}
	var suggestErr error
	suggested := s.suggester.Suggest(ctx, gemini.Request{
		APIKey: keys.Gemini,
		Model:  ai.Model,
		Kind:   kind,
		Count:  ai.Count,
	})
	if suggested.OK() {
		entries = s.reconciler.Reconcile(ctx, suggested.Value, kind, keys.TMDB)
	} else {
		suggestErr = suggested.Err
		s.warnSuggest(ctx, logger, suggestErr)
	}

	result := GeneralResult{Kind: kind, Entries: entries}
	if storable(ctx, suggestErr) {
		s.general.Set(key, result)
	} else {
		logger.Debug("general recommendations not cached", logging.String("reason", skipReason(ctx, suggestErr)))
	}
	logger.Info("general recommendations ready", logging.Int("entries", len(entries)))
	return result
}

// SimilarTitles returns TMDB's own similar titles for externalID. The boolean
// is false when no TMDB key was supplied or the title could not be resolved.
func (s *Service) SimilarTitles(ctx context.Context, externalID, tmdbKey string) (TitleResult, bool) {
	id := imdbid.Base(strings.TrimSpace(externalID))
	tmdbKey = strings.TrimSpace(tmdbKey)
	if id == "" || tmdbKey == "" {
		return TitleResult{}, false
	}
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldExternalID, id))

	key := similarKey(id, tmdbKey)
	if cached, ok := s.similar.Get(key); ok {
		return cached, true
	}

	resolved := s.lookup.ResolveByExternalID(ctx, id, tmdbKey)
	if !resolved.OK() {
		logger.Debug("source title unresolved", logging.String("status", resolved.Status.String()))
		return TitleResult{}, false
	}
	source := resolved.Value

	entries := []media.Entry{}
	var similarErr error
	similar := s.lookup.FetchSimilar(ctx, source, tmdbKey)
	if similar.OK() {
		for _, rec := range similar.Value {
			entries = append(entries, media.Entry{
				Title:      rec.Title,
				ExternalID: rec.ExternalID,
				Kind:       rec.Kind.Or(source.Kind),
				PosterURL:  rec.PosterURL,
			})
		}
	} else {
		similarErr = similar.Err
	}

	result := TitleResult{
		ExternalID:  id,
		SourceTitle: source.Title,
		Kind:        source.Kind,
		Entries:     entries,
	}
	if storable(ctx, similarErr) {
		s.similar.Set(key, result)
	}
	return result, true
}

// DefaultSettings exposes the resolved defaults.
func (s *Service) DefaultSettings() Defaults {
	return s.defaults
}

func (s *Service) resolveAI(ai AI) AI {
	ai.Model = strings.TrimSpace(ai.Model)
	if ai.Model == "" {
		ai.Model = s.defaults.Model
	}
	if ai.Count <= 0 {
		ai.Count = s.defaults.Count
	}
	ai.Count = gemini.ClampCount(ai.Count)
	switch ai.Filter {
	case media.FilterSame, media.FilterAll:
	default:
		ai.Filter = s.defaults.Filter
	}
	return ai
}

func (s *Service) warnSuggest(ctx context.Context, logger *slog.Logger, err error) {
	if ctx.Err() != nil {
		logger.Debug("suggestion abandoned", logging.Error(err))
		return
	}
	impact := "empty recommendation list cached for the window"
	if !storable(ctx, err) {
		impact = "empty recommendation list returned; not cached"
	}
	logging.WarnWithContext(logger, "gemini suggestions unavailable", "gemini_suggest_failed",
		logging.String("error_kind", services.Classify(err)),
		logging.String(logging.FieldErrorHint, "check the Gemini api key, model name, and quota"),
		logging.String(logging.FieldImpact, impact),
		logging.Error(err),
	)
}

// storable reports whether an outcome may be memoised. A caller that went away
// or a breaker that refused the call says nothing about the upstream answer.
func storable(ctx context.Context, err error) bool {
	return ctx.Err() == nil && !errors.Is(err, services.ErrCircuitOpen)
}

func skipReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "request canceled"
	}
	return "circuit open"
}

func trimKeys(k Keys) Keys {
	return Keys{TMDB: strings.TrimSpace(k.TMDB), Gemini: strings.TrimSpace(k.Gemini)}
}
