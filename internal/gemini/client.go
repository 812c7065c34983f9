package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"morelikethis/internal/logging"
	"morelikethis/internal/media"
	"morelikethis/internal/metrics"
	"morelikethis/internal/services"
)

const (
	defaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel           = "gemini-2.5-flash"
	defaultTimeout         = 30 * time.Second
	defaultMaxOutputTokens = 65536

	// MinCount and MaxCount bound how many suggestions are requested.
	MinCount = 1
	MaxCount = 30
)

// ErrEmptyResponse reports a generateContent answer without any text part.
var ErrEmptyResponse = errors.New("gemini returned no text")

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	BaseURL         string
	DefaultModel    string
	Timeout         time.Duration
	MaxOutputTokens int
}

// Request describes one suggestion call. An empty SourceTitle selects the
// general prompt.
type Request struct {
	APIKey      string
	Model       string
	SourceTitle string
	Kind        media.Kind
	Count       int
	Filter      media.ContentFilter
}

// StatusError reports a non-200 Gemini answer.
type StatusError struct {
	Op         string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini %s: http %d: %s", e.Op, e.StatusCode, e.Snippet)
}

// Client wraps the Gemini generateContent API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *services.Breaker
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBreaker routes requests through a circuit breaker.
func WithBreaker(b *services.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "gemini")
	}
}

// New constructs a Gemini client using the supplied configuration.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.DefaultModel = strings.TrimSpace(cfg.DefaultModel)
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.NewComponentLogger(nil, "gemini"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DefaultModel returns the model used when a request names none.
func (c *Client) DefaultModel() string {
	return c.cfg.DefaultModel
}

// ClampCount bounds n to [MinCount, MaxCount].
func ClampCount(n int) int {
	return min(MaxCount, max(MinCount, n))
}

// Suggest asks the model for titles. The similar prompt is used when
// req.SourceTitle is set, the general prompt otherwise.
func (c *Client) Suggest(ctx context.Context, req Request) media.Lookup[[]media.Suggestion] {
	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		return media.Failed[[]media.Suggestion](services.Wrap(services.ErrConfiguration, "gemini", "generate", "api key required", nil))
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.cfg.DefaultModel
	}
	count := ClampCount(req.Count)
	prompt := buildPrompt(req, count)

	logger := logging.WithContext(ctx, c.logger).With(
		logging.String("model", model),
		logging.String("mode", prompt.mode),
		logging.Int("count", count),
	)

	text, err := c.generate(ctx, apiKey, model, prompt)
	if err != nil {
		return media.Failed[[]media.Suggestion](err)
	}
	logger.Debug("gemini response received", logging.String("snippet", summarizePayloadSnippet(text)))

	parsed, err := ParseSuggestions(text)
	if err != nil {
		logging.WarnWithContext(logger, "gemini payload not a json array", "gemini_parse_failed",
			logging.String(logging.FieldErrorHint, "model ignored the output format; retry or choose another model"),
			logging.String("snippet", summarizePayloadSnippet(text)),
			logging.Error(err),
		)
		return media.Failed[[]media.Suggestion](services.Wrap(services.ErrParse, "gemini", "generate", "decode suggestions", err))
	}
	if parsed.Dropped > 0 {
		logger.Debug("dropped malformed suggestions", logging.Int("dropped", parsed.Dropped))
	}

	suggestions := parsed.Suggestions
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	for i := range suggestions {
		switch {
		case prompt.mode == modeGeneral:
			suggestions[i].Kind = media.KindUnknown
		case req.Filter != media.FilterAll:
			suggestions[i].Kind = req.Kind
		}
	}
	logger.Debug("parsed suggestions", logging.Int("suggestions", len(suggestions)))
	return media.Found(suggestions)
}

// VerifyKey checks that apiKey can list models.
func (c *Client) VerifyKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "gemini", "models", "api key required", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	endpoint := c.cfg.BaseURL + "/models?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini models: new request: %w", err)
	}
	_, err = c.do(req, "models")
	return err
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *Client) generate(ctx context.Context, apiKey, model string, p prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload := generateRequest{
		Contents:         []content{{Parts: []part{{Text: p.text}}}},
		GenerationConfig: generationConfig{Temperature: p.temperature, MaxOutputTokens: c.cfg.MaxOutputTokens},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: encode body: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, url.PathEscape(model), url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "generate")
	if err != nil {
		return "", err
	}
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", services.Wrap(services.ErrParse, "gemini", "generate", "decode response", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 || strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text) == "" {
		detail := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			detail = "blocked: " + resp.PromptFeedback.BlockReason
		} else if len(resp.Candidates) > 0 {
			detail = "finish_reason=" + resp.Candidates[0].FinishReason
		}
		return "", services.Wrap(services.ErrExternal, "gemini", "generate", detail, ErrEmptyResponse)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// do executes req through the breaker and returns the body of a 200 answer.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	var body []byte
	start := time.Now()
	err := c.breaker.Do(func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return services.Wrap(services.ErrTimeout, "gemini", op, fmt.Sprintf("no answer within %s", c.cfg.Timeout), redactKey(err))
			}
			return services.Wrap(services.ErrTransient, "gemini", op, "http error", redactKey(err))
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrTransient, "gemini", op, "read body", redactKey(err))
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Op: op, StatusCode: resp.StatusCode, Snippet: summarizePayloadSnippet(string(data))}
			return services.Wrap(statusMarker(resp.StatusCode), "gemini", op, "", statusErr)
		}
		body = data
		return nil
	})
	metrics.ObserveUpstream("gemini", op, services.Classify(err), time.Since(start))
	return body, err
}

// statusMarker classifies a non-200 answer. Quotas are per api key, so 429
// is the caller's problem and must not count against the shared breaker.
func statusMarker(code int) error {
	switch {
	case code >= http.StatusInternalServerError:
		return services.ErrTransient
	case code == http.StatusNotFound:
		return services.ErrNotFound
	default:
		return services.ErrExternal
	}
}

// redactKey drops the request URL, which carries the api key, from
// transport errors.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s gemini: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
