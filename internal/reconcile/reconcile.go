package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"morelikethis/internal/logging"
	"morelikethis/internal/media"
	"morelikethis/internal/metrics"
)

const defaultConcurrency = 10

// Searcher resolves a free-text suggestion to a canonical record.
type Searcher interface {
	SearchByTitleYearKind(ctx context.Context, title string, year int, kind media.Kind, apiKey string) media.Lookup[media.Record]
}

// Engine turns model suggestions into catalogue entries.
type Engine struct {
	searcher    Searcher
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds in-flight searches. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "reconcile")
	}
}

// New constructs an Engine backed by searcher.
func New(searcher Searcher, opts ...Option) *Engine {
	e := &Engine{
		searcher:    searcher,
		concurrency: defaultConcurrency,
		logger:      logging.NewComponentLogger(nil, "reconcile"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile searches every candidate concurrently and returns the resolved
// entries in candidate order. Candidates that cannot be resolved are dropped.
// A candidate without a kind is searched and labelled as fallback.
func (e *Engine) Reconcile(ctx context.Context, candidates []media.Suggestion, fallback media.Kind, apiKey string) []media.Entry {
	if len(candidates) == 0 || strings.TrimSpace(apiKey) == "" {
		return []media.Entry{}
	}
	fallback = fallback.Or(media.KindMovie)

	slots := make([]*media.Entry, len(candidates))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			kind := candidate.Kind.Or(fallback)
			found := e.searcher.SearchByTitleYearKind(ctx, candidate.Title, candidate.Year, kind, apiKey)
			if !found.OK() || strings.TrimSpace(found.Value.ExternalID) == "" {
				if found.Status == media.StatusFailed {
					metrics.ReconcileCandidates.WithLabelValues("failed").Inc()
					e.logger.Debug("candidate search failed",
						logging.String("title", candidate.Title),
						logging.Int("year", candidate.Year),
						logging.Error(found.Err),
					)
				} else {
					metrics.ReconcileCandidates.WithLabelValues("not_found").Inc()
				}
				return nil
			}
			metrics.ReconcileCandidates.WithLabelValues("resolved").Inc()
			slots[i] = &media.Entry{
				Title:      found.Value.Title,
				ExternalID: found.Value.ExternalID,
				Kind:       kind,
				PosterURL:  found.Value.PosterURL,
				Year:       candidate.Year,
			}
			return nil
		})
	}
	// Workers leave a failed slot empty and always return nil.
	_ = g.Wait()

	entries := make([]media.Entry, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			entries = append(entries, *slot)
		}
	}
	logging.WithContext(ctx, e.logger).Debug("reconciled suggestions",
		logging.Int("candidates", len(candidates)),
		logging.Int("resolved", len(entries)),
	)
	return entries
}
