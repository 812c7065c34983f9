package testsupport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"morelikethis/internal/media"
)

// Title is one catalogue entry served by FakeTMDB.
type Title struct {
	IMDbID     string
	TMDBID     int64
	Kind       media.Kind
	Name       string
	Year       int
	PosterPath string
	// Similar lists the TMDB ids returned by the similar endpoint.
	Similar []int64
}

// FakeTMDB is an in-process stand-in for the TMDB v3 API.
type FakeTMDB struct {
	*httptest.Server
	APIKey string

	mu       sync.Mutex
	titles   []Title
	requests atomic.Int64
}

// NewFakeTMDB starts a fake TMDB server holding titles. It accepts only apiKey.
func NewFakeTMDB(t testing.TB, apiKey string, titles ...Title) *FakeTMDB {
	t.Helper()
	fake := &FakeTMDB{APIKey: apiKey, titles: titles}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /find/{id}", fake.handleFind)
	mux.HandleFunc("GET /search/{kind}", fake.handleSearch)
	mux.HandleFunc("GET /{kind}/{id}/similar", fake.handleSimilar)
	mux.HandleFunc("GET /{kind}/{id}/external_ids", fake.handleExternalIDs)
	mux.HandleFunc("GET /configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"images": map[string]string{"secure_base_url": "https://image.tmdb.org/t/p/"}})
	})

	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.requests.Add(1)
		if r.URL.Query().Get("api_key") != fake.APIKey {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"status_code": 7, "status_message": "Invalid API key"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fake.Close)
	return fake
}

// Add registers more titles.
func (f *FakeTMDB) Add(titles ...Title) {
	f.mu.Lock()
	f.titles = append(f.titles, titles...)
	f.mu.Unlock()
}

// Requests reports how many requests reached the server.
func (f *FakeTMDB) Requests() int {
	return int(f.requests.Load())
}

func (f *FakeTMDB) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("external_source") != "imdb_id" {
		http.Error(w, "external_source required", http.StatusBadRequest)
		return
	}
	resp := map[string][]map[string]any{"movie_results": {}, "tv_results": {}}
	if title, ok := f.byIMDb(r.PathValue("id")); ok {
		if title.Kind == media.KindSeries {
			resp["tv_results"] = append(resp["tv_results"], title.result())
		} else {
			resp["movie_results"] = append(resp["movie_results"], title.result())
		}
	}
	writeJSON(w, resp)
}

func (f *FakeTMDB) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind := kindFromPath(r.PathValue("kind"))
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	yearParam := "year"
	if kind == media.KindSeries {
		yearParam = "first_air_date_year"
	}
	year, _ := strconv.Atoi(r.URL.Query().Get(yearParam))

	results := []map[string]any{}
	f.mu.Lock()
	for _, title := range f.titles {
		if title.Kind != kind || strings.ToLower(title.Name) != query {
			continue
		}
		if year > 0 && title.Year != year {
			continue
		}
		results = append(results, title.result())
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{"page": 1, "results": results, "total_results": len(results), "total_pages": 1})
}

func (f *FakeTMDB) handleSimilar(w http.ResponseWriter, r *http.Request) {
	source, ok := f.byTMDB(r.PathValue("kind"), r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	results := []map[string]any{}
	for _, id := range source.Similar {
		if title, ok := f.byTMDB(r.PathValue("kind"), strconv.FormatInt(id, 10)); ok {
			results = append(results, title.result())
		}
	}
	writeJSON(w, map[string]any{"page": 1, "results": results})
}

func (f *FakeTMDB) handleExternalIDs(w http.ResponseWriter, r *http.Request) {
	title, ok := f.byTMDB(r.PathValue("kind"), r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var imdbID any
	if title.IMDbID != "" {
		imdbID = title.IMDbID
	}
	writeJSON(w, map[string]any{"id": title.TMDBID, "imdb_id": imdbID})
}

func (f *FakeTMDB) byIMDb(id string) (Title, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, title := range f.titles {
		if title.IMDbID != "" && title.IMDbID == id {
			return title, true
		}
	}
	return Title{}, false
}

func (f *FakeTMDB) byTMDB(kindPath, id string) (Title, bool) {
	kind := kindFromPath(kindPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, title := range f.titles {
		if title.Kind == kind && strconv.FormatInt(title.TMDBID, 10) == id {
			return title, true
		}
	}
	return Title{}, false
}

func (t Title) result() map[string]any {
	out := map[string]any{"id": t.TMDBID, "poster_path": t.PosterPath}
	date := ""
	if t.Year > 0 {
		date = fmt.Sprintf("%04d-01-01", t.Year)
	}
	if t.Kind == media.KindSeries {
		out["name"] = t.Name
		out["first_air_date"] = date
	} else {
		out["title"] = t.Name
		out["release_date"] = date
	}
	return out
}

func kindFromPath(segment string) media.Kind {
	if segment == "tv" {
		return media.KindSeries
	}
	return media.KindMovie
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
