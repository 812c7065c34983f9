package gemini_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"morelikethis/internal/gemini"
	"morelikethis/internal/media"
	"morelikethis/internal/services"
)

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestClampCount(t *testing.T) {
	tests := map[int]int{-4: 1, 0: 1, 1: 1, 10: 10, 30: 30, 31: 30, 500: 30}
	for in, want := range tests {
		if got := gemini.ClampCount(in); got != want {
			t.Fatalf("ClampCount(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSuggestSimilarRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/demo-model:generateContent" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("key") != "gkey" {
			t.Errorf("expected key query parameter, got %q", r.URL.RawQuery)
		}
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				Temperature     float64 `json:"temperature"`
				MaxOutputTokens int     `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.GenerationConfig.Temperature != 0.7 || payload.GenerationConfig.MaxOutputTokens != 1024 {
			t.Errorf("unexpected generation config %#v", payload.GenerationConfig)
		}
		if len(payload.Contents) != 1 || !strings.Contains(payload.Contents[0].Parts[0].Text, `"Inception"`) {
			t.Errorf("prompt missing source title: %#v", payload.Contents)
		}
		_ = json.NewEncoder(w).Encode(textResponse("```json\n[{\"title\":\"Interstellar\",\"year\":2014,\"type\":\"movie\"},{\"title\":\"Dark\",\"year\":2017,\"type\":\"series\"}]\n```"))
	}))
	t.Cleanup(server.Close)

	client := gemini.New(gemini.Config{BaseURL: server.URL, DefaultModel: "demo-model", MaxOutputTokens: 1024})
	got := client.Suggest(context.Background(), gemini.Request{
		APIKey:      "gkey",
		SourceTitle: "Inception",
		Kind:        media.KindMovie,
		Count:       10,
		Filter:      media.FilterSame,
	})
	if !got.OK() {
		t.Fatalf("expected suggestions, got %#v", got)
	}
	want := []media.Suggestion{
		{Title: "Interstellar", Year: 2014, Kind: media.KindMovie},
		{Title: "Dark", Year: 2017, Kind: media.KindMovie},
	}
	if len(got.Value) != len(want) {
		t.Fatalf("unexpected suggestions %#v", got.Value)
	}
	for i := range want {
		if got.Value[i] != want[i] {
			t.Fatalf("suggestion %d = %#v, want %#v", i, got.Value[i], want[i])
		}
	}
}

func TestSuggestAllFilterKeepsEntryKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(`[{"title":"Dark","year":2017,"type":"series"},{"title":"Primer","year":2004}]`))
	}))
	t.Cleanup(server.Close)

	client := gemini.New(gemini.Config{BaseURL: server.URL})
	got := client.Suggest(context.Background(), gemini.Request{APIKey: "k", SourceTitle: "Primer", Kind: media.KindMovie, Count: 5, Filter: media.FilterAll})
	if !got.OK() || got.Value[0].Kind != media.KindSeries || got.Value[1].Kind != media.KindUnknown {
		t.Fatalf("unexpected suggestions %#v", got)
	}
}

func TestSuggestGeneralTruncatesAndClearsKind(t *testing.T) {
	var items []string
	for i := range 8 {
		items = append(items, fmt.Sprintf(`{"title":"Film %d","year":20%02d,"type":"series"}`, i, i))
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"temperature":0.9`) {
			t.Errorf("expected general temperature in %s", body)
		}
		_ = json.NewEncoder(w).Encode(textResponse("[" + strings.Join(items, ",") + "]"))
	}))
	t.Cleanup(server.Close)

	client := gemini.New(gemini.Config{BaseURL: server.URL})
	got := client.Suggest(context.Background(), gemini.Request{APIKey: "k", Kind: media.KindMovie, Count: 3})
	if !got.OK() || len(got.Value) != 3 {
		t.Fatalf("expected 3 suggestions, got %#v", got)
	}
	for _, s := range got.Value {
		if s.Kind != media.KindUnknown {
			t.Fatalf("general suggestions must not carry a kind, got %#v", s)
		}
	}
}

func TestSuggestFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		marker  error
	}{
		{
			name: "no text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"candidates":[]}`))
			},
			marker: gemini.ErrEmptyResponse,
		},
		{
			name: "prose instead of json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(textResponse("I recommend Interstellar."))
			},
			marker: services.ErrParse,
		},
		{
			name: "bad key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
			},
			marker: services.ErrExternal,
		},
		{
			name: "quota exhausted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			marker: services.ErrExternal,
		},
		{
			name: "overloaded",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			marker: services.ErrTransient,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			t.Cleanup(server.Close)
			client := gemini.New(gemini.Config{BaseURL: server.URL})
			got := client.Suggest(context.Background(), gemini.Request{APIKey: "k", SourceTitle: "Heat", Kind: media.KindMovie, Count: 5})
			if got.Status != media.StatusFailed || !errors.Is(got.Err, tc.marker) {
				t.Fatalf("expected failure wrapping %v, got %#v", tc.marker, got)
			}
		})
	}
}

func TestSuggestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := gemini.New(gemini.Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	got := client.Suggest(context.Background(), gemini.Request{APIKey: "k", Kind: media.KindMovie, Count: 5})
	if got.Status != media.StatusFailed || !errors.Is(got.Err, services.ErrTimeout) {
		t.Fatalf("expected timeout failure, got %#v", got)
	}
	if strings.Contains(got.Err.Error(), "key=k") {
		t.Fatalf("error leaks api key: %v", got.Err)
	}
}

func TestSuggestWithoutKeySkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	t.Cleanup(server.Close)
	client := gemini.New(gemini.Config{BaseURL: server.URL})
	got := client.Suggest(context.Background(), gemini.Request{Kind: media.KindMovie})
	if got.Status != media.StatusFailed || !errors.Is(got.Err, services.ErrConfiguration) {
		t.Fatalf("expected configuration failure, got %#v", got)
	}
}

func TestVerifyKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	client := gemini.New(gemini.Config{BaseURL: server.URL})
	if err := client.VerifyKey(context.Background(), "good"); err != nil {
		t.Fatalf("VerifyKey returned error: %v", err)
	}
	if err := client.VerifyKey(context.Background(), "bad"); err == nil {
		t.Fatal("expected VerifyKey to reject bad key")
	}
}

func TestExhaustedKeyDoesNotOpenSharedBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "exhausted" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(textResponse(`[{"title":"Heat","year":1995}]`))
	}))
	t.Cleanup(server.Close)

	breaker := services.NewBreaker("gemini-quota-test", services.BreakerSettings{ConsecutiveFailures: 2}, nil)
	client := gemini.New(gemini.Config{BaseURL: server.URL}, gemini.WithBreaker(breaker))
	for range 5 {
		got := client.Suggest(context.Background(), gemini.Request{APIKey: "exhausted", Kind: media.KindMovie, Count: 5})
		if got.Status != media.StatusFailed || services.IsTransient(got.Err) {
			t.Fatalf("expected non-transient failure, got %#v", got)
		}
	}
	if state := breaker.State(); state != "closed" {
		t.Fatalf("breaker state = %s, want closed", state)
	}

	got := client.Suggest(context.Background(), gemini.Request{APIKey: "good", Kind: media.KindMovie, Count: 5})
	if !got.OK() || len(got.Value) != 1 {
		t.Fatalf("expected suggestions for the healthy key, got %#v", got)
	}
}
