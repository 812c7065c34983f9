package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. API keys are optional: a
// missing key disables the matching feature instead of failing startup.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateRecommendations(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.PublicURL != "" {
		if err := validateHTTPURL(c.Server.PublicURL); err != nil {
			return fmt.Errorf("server.public_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if err := validateHTTPURL(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if err := validateHTTPURL(c.TMDB.ImageBaseURL); err != nil {
		return fmt.Errorf("tmdb.image_base_url: %w", err)
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if err := validateHTTPURL(c.Gemini.BaseURL); err != nil {
		return fmt.Errorf("gemini.base_url: %w", err)
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRecommendations() error {
	r := c.Recommendations
	if r.DefaultCount < MinRecommendationCount || r.DefaultCount > MaxRecommendationCount {
		return fmt.Errorf("recommendations.default_count must be between %d and %d", MinRecommendationCount, MaxRecommendationCount)
	}
	switch r.ContentFilter {
	case "same", "all":
	default:
		return fmt.Errorf("recommendations.content_filter: unsupported value %q (use same or all)", r.ContentFilter)
	}
	if r.CacheTTLMinutes <= 0 {
		return errors.New("recommendations.cache_ttl_minutes must be positive")
	}
	if r.ReconcileConcurrency <= 0 {
		return errors.New("recommendations.reconcile_concurrency must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("must be set")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
