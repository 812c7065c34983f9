package main

import (
	"fmt"
	"log/slog"

	"morelikethis/internal/config"
	"morelikethis/internal/gemini"
	"morelikethis/internal/media"
	"morelikethis/internal/recommend"
	"morelikethis/internal/reconcile"
	"morelikethis/internal/services"
	"morelikethis/internal/tmdb"
)

// pipeline is the wired recommendation stack shared by serve and the one-shot
// commands.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	tmdb     *tmdb.Client
	gemini   *gemini.Client
	breakers []*services.Breaker
	service  *recommend.Service
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	tmdbBreaker := services.NewBreaker("tmdb", services.BreakerSettings{}, logger)
	geminiBreaker := services.NewBreaker("gemini", services.BreakerSettings{}, logger)

	tmdbClient, err := tmdb.New(cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithBreaker(tmdbBreaker),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	geminiClient := gemini.New(gemini.Config{
		BaseURL:         cfg.Gemini.BaseURL,
		DefaultModel:    cfg.Gemini.Model,
		Timeout:         cfg.GeminiTimeout(),
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	},
		gemini.WithBreaker(geminiBreaker),
		gemini.WithLogger(logger),
	)

	resolver := tmdb.NewResolver(tmdbClient, logger)
	engine := reconcile.New(resolver,
		reconcile.WithConcurrency(cfg.Recommendations.ReconcileConcurrency),
		reconcile.WithLogger(logger),
	)
	service := recommend.New(resolver, geminiClient, engine,
		recommend.WithTTL(cfg.CacheTTL()),
		recommend.WithLogger(logger),
		recommend.WithDefaults(recommend.Defaults{
			Model:  cfg.Gemini.Model,
			Count:  cfg.Recommendations.DefaultCount,
			Filter: media.ParseContentFilter(cfg.Recommendations.ContentFilter),
		}),
	)

	return &pipeline{
		cfg:      cfg,
		logger:   logger,
		tmdb:     tmdbClient,
		gemini:   geminiClient,
		breakers: []*services.Breaker{tmdbBreaker, geminiBreaker},
		service:  service,
	}, nil
}

func (p *pipeline) keys() recommend.Keys {
	return recommend.Keys{TMDB: p.cfg.TMDB.APIKey, Gemini: p.cfg.Gemini.APIKey}
}
