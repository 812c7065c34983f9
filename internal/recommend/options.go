package recommend

import (
	"log/slog"
	"time"

	"morelikethis/internal/media"
	"morelikethis/internal/memo"
)

const defaultCount = 10

type settings struct {
	clock    func() time.Time
	ttl      time.Duration
	logger   *slog.Logger
	defaults Defaults
}

// Option configures a Service.
type Option func(*settings)

// WithClock replaces time.Now for every cache the service owns.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.clock = now
	}
}

// WithTTL sets the freshness window of every cache.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithDefaults sets the fallback model, count, and filter.
func WithDefaults(d Defaults) Option {
	return func(s *settings) {
		s.defaults = d
	}
}

func (s settings) cacheOptions() []memo.Option {
	return []memo.Option{memo.WithTTL(s.ttl), memo.WithClock(s.clock)}
}

func (d Defaults) normalized() Defaults {
	if d.Count <= 0 {
		d.Count = defaultCount
	}
	if d.Filter != media.FilterAll {
		d.Filter = media.FilterSame
	}
	return d
}
