package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"morelikethis/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"TMDB_API_KEY", "GEMINI_API_KEY", "PORT", "BASE_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func TestLoadDefaultConfigUsesEnvFallbacks(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("TMDB_API_KEY", "tmdb-env")
	t.Setenv("GEMINI_API_KEY", "gemini-env")
	t.Setenv("PORT", "8123")
	t.Setenv("BASE_URL", "https://addon.example.com/")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "morelikethis", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.TMDB.APIKey != "tmdb-env" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Gemini.APIKey != "gemini-env" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Server.Bind != "0.0.0.0:8123" {
		t.Fatalf("expected PORT to override bind port, got %q", cfg.Server.Bind)
	}
	if cfg.Server.PublicURL != "https://addon.example.com" {
		t.Fatalf("expected trimmed public url, got %q", cfg.Server.PublicURL)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "" || cfg.Gemini.APIKey != "" {
		t.Fatal("expected API keys to be optional and empty by default")
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected default model %q", cfg.Gemini.Model)
	}
	if cfg.GeminiTimeout() != 30*time.Second {
		t.Fatalf("unexpected gemini timeout %v", cfg.GeminiTimeout())
	}
	if cfg.TMDBTimeout() != 10*time.Second {
		t.Fatalf("unexpected tmdb timeout %v", cfg.TMDBTimeout())
	}
	if cfg.CacheTTL() != time.Hour {
		t.Fatalf("unexpected cache ttl %v", cfg.CacheTTL())
	}
	if cfg.Recommendations.DefaultCount != 10 || cfg.Recommendations.ContentFilter != "same" {
		t.Fatalf("unexpected recommendation defaults %+v", cfg.Recommendations)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "morelikethis.toml")

	type payload struct {
		TMDB struct {
			APIKey   string `toml:"api_key"`
			Language string `toml:"language"`
		} `toml:"tmdb"`
		Recommendations struct {
			DefaultCount  int    `toml:"default_count"`
			ContentFilter string `toml:"content_filter"`
		} `toml:"recommendations"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.Language = "pt-br"
	custom.Recommendations.DefaultCount = 25
	custom.Recommendations.ContentFilter = "ALL"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("unexpected api key %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.Language != "pt-BR" {
		t.Fatalf("expected canonical language tag, got %q", cfg.TMDB.Language)
	}
	if cfg.Recommendations.DefaultCount != 25 || cfg.Recommendations.ContentFilter != "all" {
		t.Fatalf("unexpected recommendations %+v", cfg.Recommendations)
	}
	if cfg.TMDB.BaseURL != config.Default().TMDB.BaseURL {
		t.Fatalf("expected default base url to survive partial config, got %q", cfg.TMDB.BaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "count out of range", content: "[recommendations]\ndefault_count = 31\n", want: "default_count"},
		{name: "unknown filter", content: "[recommendations]\ncontent_filter = \"both\"\n", want: "content_filter"},
		{name: "bad language", content: "[tmdb]\nlanguage = \"not a tag!\"\n", want: "tmdb.language"},
		{name: "bad base url", content: "[gemini]\nbase_url = \"ftp://example.com\"\n", want: "gemini.base_url"},
		{name: "negative timeout", content: "[tmdb]\ntimeout_seconds = -1\n", want: "tmdb.timeout_seconds"},
		{name: "bad log format", content: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error %q", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Server.Bind != config.Default().Server.Bind {
		t.Fatalf("unexpected bind from sample %q", cfg.Server.Bind)
	}
}
