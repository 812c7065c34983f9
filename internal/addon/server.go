package addon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"morelikethis/internal/config"
	"morelikethis/internal/logging"
	"morelikethis/internal/recommend"
	"morelikethis/internal/services"
)

// Recommender is the recommendation surface the addon serves.
type Recommender interface {
	TitleRecommendations(ctx context.Context, req recommend.TitleRequest) (recommend.TitleResult, bool)
	GeneralRecommendations(ctx context.Context, req recommend.GeneralRequest) recommend.GeneralResult
	SimilarTitles(ctx context.Context, externalID, tmdbKey string) (recommend.TitleResult, bool)
}

// Server exposes the Stremio addon protocol over HTTP.
type Server struct {
	cfg         *config.Config
	recommender Recommender
	logger      *slog.Logger
	breakers    []*services.Breaker
	handler     http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.NewComponentLogger(logger, "addon")
	}
}

// WithBreakers lists the upstream breakers reported by /healthz.
func WithBreakers(breakers ...*services.Breaker) Option {
	return func(s *Server) {
		s.breakers = append(s.breakers, breakers...)
	}
}

// New builds the addon router.
func New(cfg *config.Config, recommender Recommender, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("addon: config required")
	}
	if recommender == nil {
		return nil, errors.New("addon: recommender required")
	}
	s := &Server{
		cfg:         cfg,
		recommender: recommender,
		logger:      logging.NewComponentLogger(nil, "addon"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(permissiveCORS())
	r.Use(noCache)
	r.Use(accessLog(s.logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/manifest.json", http.StatusFound)
	})
	r.Get("/healthz", s.handleHealth)
	if s.cfg.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	s.mountResources(r)
	r.Route("/{config}", func(r chi.Router) {
		r.Use(s.userConfigMiddleware)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, strings.TrimSuffix(r.URL.EscapedPath(), "/")+"/manifest.json", http.StatusFound)
		})
		s.mountResources(r)
	})
	return r
}

func (s *Server) mountResources(r chi.Router) {
	r.Get("/manifest.json", s.handleManifest)
	r.Get("/catalog/{type}/{id}", s.handleCatalog)
	r.Get("/catalog/{type}/{id}/{extra}", s.handleCatalog)
	r.Get("/meta/{type}/{id}", s.handleMeta)
	r.Get("/stream/{type}/{id}", s.handleStream)
}

func (s *Server) userConfigMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := ParseUserConfig(chi.URLParam(r, "config"))
		if err != nil {
			logging.WithContext(r.Context(), s.logger).Debug("rejected config segment", logging.Error(err))
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid addon configuration"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserConfig(r.Context(), cfg)))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Server.Bind)
	if bind == "" {
		return errors.New("addon: bind address required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("addon listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Requests keep ctx's values but not its cancellation, so Shutdown can
		// drain them after a signal.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("addon listening",
		logging.String("address", listener.Addr().String()),
		logging.String("manifest", s.manifestURL(listener.Addr())),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("addon serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	s.logger.Info("addon shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("addon shutdown: %w", err)
	}
	return nil
}

func (s *Server) manifestURL(addr net.Addr) string {
	if base := strings.TrimRight(s.cfg.Server.PublicURL, "/"); base != "" {
		return base + "/manifest.json"
	}
	host := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		host = net.JoinHostPort("127.0.0.1", fmt.Sprint(tcp.Port))
	}
	return "http://" + host + "/manifest.json"
}
