package addon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrInvalidConfig reports an undecodable config path segment.
var ErrInvalidConfig = errors.New("invalid addon config")

// FlexibleInt decodes from a JSON number or a numeric string. Anything else
// decodes as 0, which selects the server default.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexibleInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	text = strings.TrimSpace(text)
	if value, err := strconv.Atoi(text); err == nil {
		*n = FlexibleInt(value)
		return nil
	}
	if value, err := strconv.ParseFloat(text, 64); err == nil {
		*n = FlexibleInt(int(value))
		return nil
	}
	*n = 0
	return nil
}

// UserConfig is the per-install configuration Stremio embeds in the addon
// URL as URL-encoded JSON.
type UserConfig struct {
	TMDBAPIKey        string      `json:"tmdbApiKey,omitempty"`
	GeminiAPIKey      string      `json:"geminiApiKey,omitempty"`
	GeminiModel       string      `json:"geminiModel,omitempty"`
	MaxResults        FlexibleInt `json:"maxResults,omitempty"`
	ContentTypeFilter string      `json:"contentTypeFilter,omitempty"`
	BaseURL           string      `json:"baseUrl,omitempty"`
}

// ParseUserConfig decodes a config path segment. The segment may still be
// percent-encoded.
func ParseUserConfig(segment string) (UserConfig, error) {
	var cfg UserConfig
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return cfg, nil
	}
	if !strings.HasPrefix(segment, "{") {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		segment = decoded
	}
	if err := json.Unmarshal([]byte(segment), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.TMDBAPIKey = strings.TrimSpace(cfg.TMDBAPIKey)
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	cfg.ContentTypeFilter = strings.TrimSpace(cfg.ContentTypeFilter)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return cfg, nil
}

// Encode returns the config as a URL path segment.
func (c UserConfig) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(data)), nil
}

type userConfigKey struct{}

func withUserConfig(ctx context.Context, cfg UserConfig) context.Context {
	return context.WithValue(ctx, userConfigKey{}, cfg)
}

func userConfigFrom(ctx context.Context) UserConfig {
	cfg, _ := ctx.Value(userConfigKey{}).(UserConfig)
	return cfg
}
