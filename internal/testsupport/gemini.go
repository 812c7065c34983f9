package testsupport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// FakeGemini is an in-process stand-in for the Gemini generateContent API.
// It answers every prompt with the configured reply text.
type FakeGemini struct {
	*httptest.Server
	APIKey string

	mu       sync.Mutex
	reply    string
	status   int
	delay    time.Duration
	prompts  []string
	models   []string
	requests atomic.Int64
}

// NewFakeGemini starts a fake Gemini server accepting only apiKey.
func NewFakeGemini(t testing.TB, apiKey string) *FakeGemini {
	t.Helper()
	fake := &FakeGemini{APIKey: apiKey, reply: "[]", status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/{action}", fake.handleGenerate)
	mux.HandleFunc("GET /models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"models": []map[string]string{{"name": "models/gemini-2.5-flash"}}})
	})

	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.requests.Add(1)
		if r.URL.Query().Get("key") != fake.APIKey {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]any{"error": map[string]any{"code": 400, "message": "API key not valid"}})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fake.Close)
	return fake
}

// SetReply sets the text returned in the first candidate part.
func (f *FakeGemini) SetReply(text string) {
	f.mu.Lock()
	f.reply = text
	f.mu.Unlock()
}

// SetStatus makes generate calls fail with code. Use http.StatusOK to reset.
func (f *FakeGemini) SetStatus(code int) {
	f.mu.Lock()
	f.status = code
	f.mu.Unlock()
}

// SetDelay holds each generate call for d, or until the client gives up.
func (f *FakeGemini) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// Requests reports how many requests reached the server.
func (f *FakeGemini) Requests() int {
	return int(f.requests.Load())
}

// Prompts returns every prompt received so far.
func (f *FakeGemini) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Models returns the model named by each generate call.
func (f *FakeGemini) Models() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.models...)
}

func (f *FakeGemini) handleGenerate(w http.ResponseWriter, r *http.Request) {
	model, ok := strings.CutSuffix(r.PathValue("action"), ":generateContent")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.Contents) == 0 || len(req.Contents[0].Parts) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, req.Contents[0].Parts[0].Text)
	f.models = append(f.models, model)
	reply, status, delay := f.reply, f.status, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		writeJSON(w, map[string]any{"error": map[string]any{"code": status, "message": "upstream unavailable"}})
		return
	}
	writeJSON(w, map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"parts": []any{map[string]any{"text": reply}}, "role": "model"},
				"finishReason": "STOP",
			},
		},
	})
}
