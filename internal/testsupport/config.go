package testsupport

import (
	"path/filepath"
	"testing"

	"morelikethis/internal/config"
)

const (
	// TMDBKey and GeminiKey are the keys the fake upstreams accept by default.
	TMDBKey   = "tmdb-test-key"
	GeminiKey = "gemini-test-key"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config with operator keys set, an ephemeral bind
// address, and logging to a per-test temp file. It applies any provided
// options on top.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.TMDB.APIKey = TMDBKey
	cfgVal.Gemini.APIKey = GeminiKey
	cfgVal.Logging.File = filepath.Join(base, "morelikethis.log")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDB points the config at a fake TMDB server.
func WithTMDB(fake *FakeTMDB) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = fake.URL
		b.cfg.TMDB.APIKey = fake.APIKey
	}
}

// WithGemini points the config at a fake Gemini server.
func WithGemini(fake *FakeGemini) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = fake.URL
		b.cfg.Gemini.APIKey = fake.APIKey
	}
}

// WithoutKeys clears both operator keys.
func WithoutKeys() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = ""
		b.cfg.Gemini.APIKey = ""
	}
}

// WithPublicURL sets the base URL used for stream links.
func WithPublicURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.PublicURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.File)
}
