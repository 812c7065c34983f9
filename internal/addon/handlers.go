package addon

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"morelikethis/internal/imdbid"
	"morelikethis/internal/logging"
	"morelikethis/internal/media"
	"morelikethis/internal/metrics"
	"morelikethis/internal/recommend"
)

// MetaPreview is one catalogue item.
type MetaPreview struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Poster string `json:"poster,omitempty"`
}

// MetaLink is a navigable link on a detail page.
type MetaLink struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// MetaDetail is the meta resource payload.
type MetaDetail struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"`
	Name  string     `json:"name"`
	Links []MetaLink `json:"links"`
}

// Stream is one stream entry. Only external links are produced.
type Stream struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ExternalURL string `json:"externalUrl"`
}

type catalogResponse struct {
	Metas []MetaPreview `json:"metas"`
}

type metaResponse struct {
	Meta *MetaDetail `json:"meta"`
}

type streamResponse struct {
	Streams []Stream `json:"streams"`
}

type requestSettings struct {
	user    UserConfig
	keys    recommend.Keys
	ai      recommend.AI
	baseURL string
}

// settings merges the caller's config with the operator defaults.
func (s *Server) settings(r *http.Request) requestSettings {
	user := userConfigFrom(r.Context())
	rs := requestSettings{
		user: user,
		keys: recommend.Keys{
			TMDB:   firstNonEmpty(user.TMDBAPIKey, s.cfg.TMDB.APIKey),
			Gemini: firstNonEmpty(user.GeminiAPIKey, s.cfg.Gemini.APIKey),
		},
		ai: recommend.AI{
			Model: user.GeminiModel,
			Count: int(user.MaxResults),
		},
		baseURL: strings.TrimRight(firstNonEmpty(user.BaseURL, s.cfg.Server.PublicURL), "/"),
	}
	if user.ContentTypeFilter != "" {
		rs.ai.Filter = media.ParseContentFilter(user.ContentTypeFilter)
	}
	return rs
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, BuildManifest())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kind := media.ParseKind(chi.URLParam(r, "type"))
	rs := s.settings(r)
	empty := catalogResponse{Metas: []MetaPreview{}}
	if !kind.Valid() || rs.keys.TMDB == "" {
		metrics.AddonRequests.WithLabelValues("catalog", "unconfigured").Inc()
		s.writeJSON(w, http.StatusOK, empty)
		return
	}
	logger := logging.WithContext(r.Context(), s.logger)

	var entries []media.Entry
	search := catalogExtra(chi.URLParam(r, "extra")).Get("search")
	if imdbid.Valid(search) {
		metrics.AddonRequests.WithLabelValues("catalog", "title").Inc()
		result, ok := s.recommender.TitleRecommendations(r.Context(), recommend.TitleRequest{
			ExternalID: search,
			Kind:       kind,
			Keys:       rs.keys,
			AI:         rs.ai,
		})
		if !ok {
			logger.Debug("no title recommendations", logging.String(logging.FieldExternalID, imdbid.Base(search)))
			s.writeJSON(w, http.StatusOK, empty)
			return
		}
		entries = result.Entries
	} else {
		metrics.AddonRequests.WithLabelValues("catalog", "general").Inc()
		entries = s.recommender.GeneralRecommendations(r.Context(), recommend.GeneralRequest{
			Kind: kind,
			Keys: rs.keys,
			AI:   rs.ai,
		}).Entries
	}

	metas := make([]MetaPreview, 0, len(entries))
	for _, entry := range entries {
		metas = append(metas, MetaPreview{
			ID:     entry.ExternalID,
			Type:   string(entry.Kind.Or(kind)),
			Name:   entry.Title,
			Poster: entry.PosterURL,
		})
	}
	s.writeJSON(w, http.StatusOK, catalogResponse{Metas: metas})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r)
	kind := chi.URLParam(r, "type")
	rs := s.settings(r)
	if !imdbid.Valid(id) || rs.keys.TMDB == "" {
		metrics.AddonRequests.WithLabelValues("meta", "unconfigured").Inc()
		s.writeJSON(w, http.StatusOK, metaResponse{})
		return
	}
	metrics.AddonRequests.WithLabelValues("meta", "similar").Inc()
	result, ok := s.recommender.SimilarTitles(r.Context(), id, rs.keys.TMDB)
	if !ok {
		s.writeJSON(w, http.StatusOK, metaResponse{})
		return
	}
	links := make([]MetaLink, 0, len(result.Entries))
	for _, entry := range result.Entries {
		links = append(links, MetaLink{
			Name:     entry.Title,
			Category: "Recommendations",
			URL:      fmt.Sprintf("stremio:///detail/%s/%s", entry.Kind.Or(result.Kind), entry.ExternalID),
		})
	}
	s.writeJSON(w, http.StatusOK, metaResponse{Meta: &MetaDetail{
		ID:    id,
		Type:  kind,
		Name:  result.SourceTitle,
		Links: links,
	}})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := resourceID(r)
	kind := media.ParseKind(chi.URLParam(r, "type")).Or(media.KindMovie)
	rs := s.settings(r)
	empty := streamResponse{Streams: []Stream{}}
	if !imdbid.Valid(id) || rs.keys.TMDB == "" || rs.baseURL == "" {
		metrics.AddonRequests.WithLabelValues("stream", "unconfigured").Inc()
		s.writeJSON(w, http.StatusOK, empty)
		return
	}
	result, ok := s.recommender.SimilarTitles(r.Context(), id, rs.keys.TMDB)
	if !ok {
		metrics.AddonRequests.WithLabelValues("stream", "unresolved").Inc()
		s.writeJSON(w, http.StatusOK, empty)
		return
	}
	segment, err := rs.user.Encode()
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("encode user config", logging.Error(err))
		s.writeJSON(w, http.StatusOK, empty)
		return
	}
	metrics.AddonRequests.WithLabelValues("stream", "link").Inc()

	baseID := imdbid.Base(id)
	addonURL := rs.baseURL + "/" + segment + "/manifest.json"
	discover := fmt.Sprintf("stremio:///discover/%s/%s/%s?search=%s",
		url.QueryEscape(addonURL), kind, catalogIDFor(kind), url.QueryEscape(baseID))
	s.writeJSON(w, http.StatusOK, streamResponse{Streams: []Stream{{
		Name:        "🎬 MORE LIKE THIS",
		Description: fmt.Sprintf("Find similar titles to %q", result.SourceTitle),
		ExternalURL: discover,
	}}})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok", "version": Version}
	if len(s.breakers) > 0 {
		states := make(map[string]string, len(s.breakers))
		for _, b := range s.breakers {
			states[b.Name()] = b.State()
		}
		payload["breakers"] = states
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// resourceID returns the {id} parameter without its ".json" suffix.
func resourceID(r *http.Request) string {
	return strings.TrimSuffix(pathParam(r, "id"), ".json")
}

// catalogExtra parses a Stremio extra segment such as "search=tt123.json".
func catalogExtra(segment string) url.Values {
	segment = strings.TrimSuffix(segment, ".json")
	if segment == "" {
		return url.Values{}
	}
	values, err := url.ParseQuery(segment)
	if err != nil {
		return url.Values{}
	}
	for key, list := range values {
		for i := range list {
			list[i] = strings.TrimSpace(list[i])
		}
		values[key] = list
	}
	return values
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
