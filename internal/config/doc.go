// Package config loads, normalizes, and validates the addon configuration.
//
// It supplies repository defaults, reads TOML files, and honours environment
// fallbacks (TMDB_API_KEY, GEMINI_API_KEY, PORT, BASE_URL) so the addon runs
// unchanged on hosting platforms that only inject environment variables. API
// keys configured here act as operator defaults; per-user keys supplied in the
// Stremio install URL take precedence.
//
// Always obtain settings through this package so downstream code receives
// canonical language tags, trimmed URLs, and clear validation errors.
package config
