package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"morelikethis/internal/logging"
	"morelikethis/internal/metrics"
	"morelikethis/internal/services"
)

const defaultTimeout = 10 * time.Second

// Result represents a single TMDB movie or TV entry.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	Popularity   float64 `json:"popularity"`
}

// DisplayTitle returns the movie title or, for TV entries, the show name.
func (r Result) DisplayTitle() string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	return r.Name
}

// Response models the TMDB paginated list response used by search and similar.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// FindResponse models the /find cross-reference payload.
type FindResponse struct {
	MovieResults []Result `json:"movie_results"`
	TVResults    []Result `json:"tv_results"`
}

// ExternalIDs holds the cross-reference identifiers of a TMDB entry.
type ExternalIDs struct {
	ID     int64  `json:"id"`
	IMDbID string `json:"imdb_id"`
}

// StatusError reports a non-200 TMDB answer.
type StatusError struct {
	Op         string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Op, e.StatusCode, e.Latency)
}

// Client provides access to the TMDB v3 API. The API key is supplied per call
// because every addon user brings their own.
type Client struct {
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	breaker      *services.Breaker
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every TMDB request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithImageBaseURL overrides the poster URL prefix.
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.imageBaseURL = base
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
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(baseURL, language string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: "https://image.tmdb.org/t/p/w500",
		language:     strings.TrimSpace(language),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       logging.NewComponentLogger(nil, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PosterURL expands a TMDB poster path. An empty path yields "".
func (c *Client) PosterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return c.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

// Find looks up TMDB entries by IMDb identifier.
func (c *Client) Find(ctx context.Context, apiKey, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	var payload FindResponse
	if err := c.get(ctx, "find", "/find/"+url.PathEscape(imdbID), apiKey, params, true, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Similar fetches the first page of titles TMDB considers similar.
func (c *Client) Similar(ctx context.Context, apiKey, kindPath string, id int64) (*Response, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	params := url.Values{}
	params.Set("page", "1")
	var payload Response
	if err := c.get(ctx, "similar", fmt.Sprintf("/%s/%d/similar", kindPath, id), apiKey, params, true, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ExternalIDs fetches the cross-reference identifiers for a TMDB entry.
func (c *Client) ExternalIDs(ctx context.Context, apiKey, kindPath string, id int64) (*ExternalIDs, error) {
	if id <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	var payload ExternalIDs
	if err := c.get(ctx, "external_ids", fmt.Sprintf("/%s/%d/external_ids", kindPath, id), apiKey, nil, false, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Search performs a TMDB movie or TV search with an optional release year.
func (c *Client) Search(ctx context.Context, apiKey, kindPath, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		if kindPath == "tv" {
			params.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			params.Set("year", strconv.Itoa(year))
		}
	}
	var payload Response
	if err := c.get(ctx, "search", "/search/"+kindPath, apiKey, params, true, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// VerifyKey checks that apiKey is accepted by TMDB.
func (c *Client) VerifyKey(ctx context.Context, apiKey string) error {
	var payload struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	return c.get(ctx, "configuration", "/configuration", apiKey, nil, false, &payload)
}

func (c *Client) get(ctx context.Context, op, path, apiKey string, params url.Values, localized bool, target any) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "tmdb", op, "api key required", nil)
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", apiKey)
	if localized && c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	err = c.breaker.Do(func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return services.Wrap(services.ErrTransient, "tmdb", op, fmt.Sprintf("execute request (latency=%v)", time.Since(requestStart)), redactKey(err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Op: op, StatusCode: resp.StatusCode, Latency: time.Since(requestStart)}
			return services.Wrap(statusMarker(resp.StatusCode), "tmdb", op, "", statusErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return services.Wrap(services.ErrParse, "tmdb", op, "decode response", err)
		}
		return nil
	})
	latency := time.Since(requestStart)
	metrics.ObserveUpstream("tmdb", op, outcomeLabel(err), latency)
	if err != nil {
		c.logger.Debug("tmdb request failed",
			logging.String("operation", op),
			logging.Duration("latency", latency),
			logging.Error(err),
		)
		return err
	}
	return nil
}

// statusMarker classifies a non-200 answer. Quotas are per api key, so 429
// is the caller's problem and must not count against the shared breaker.
func statusMarker(code int) error {
	switch {
	case code == http.StatusNotFound:
		return services.ErrNotFound
	case code >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return services.ErrExternal
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, services.ErrCircuitOpen):
		return "rejected"
	case errors.Is(err, services.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// redactKey strips the request URL (and so the api_key query value) from
// transport errors before they reach logs.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s tmdb: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
