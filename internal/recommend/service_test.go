package recommend_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"morelikethis/internal/gemini"
	"morelikethis/internal/media"
	"morelikethis/internal/recommend"
	"morelikethis/internal/services"
)

type stubLookup struct {
	mu           sync.Mutex
	records      map[string]media.Lookup[media.Record]
	similar      media.Lookup[[]media.Record]
	resolveCalls int
	similarCalls int
}

func (s *stubLookup) ResolveByExternalID(_ context.Context, id, _ string) media.Lookup[media.Record] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveCalls++
	if rec, ok := s.records[id]; ok {
		return rec
	}
	return media.NotFound[media.Record]()
}

func (s *stubLookup) FetchSimilar(context.Context, media.Record, string) media.Lookup[[]media.Record] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similarCalls++
	return s.similar
}

type stubSuggester struct {
	mu       sync.Mutex
	result   media.Lookup[[]media.Suggestion]
	requests []gemini.Request
}

func (s *stubSuggester) Suggest(_ context.Context, req gemini.Request) media.Lookup[[]media.Suggestion] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

func (s *stubSuggester) setResult(result media.Lookup[[]media.Suggestion]) {
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
}

func (s *stubSuggester) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type stubReconciler struct {
	calls int
}

func (s *stubReconciler) Reconcile(_ context.Context, candidates []media.Suggestion, fallback media.Kind, _ string) []media.Entry {
	s.calls++
	entries := make([]media.Entry, 0, len(candidates))
	for i, c := range candidates {
		entries = append(entries, media.Entry{Title: c.Title, ExternalID: "tt" + string(rune('1'+i)), Kind: c.Kind.Or(fallback), Year: c.Year})
	}
	return entries
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func inceptionLookup() *stubLookup {
	return &stubLookup{records: map[string]media.Lookup[media.Record]{
		"tt1375666": media.Found(media.Record{ExternalID: "tt1375666", InternalID: 27205, Kind: media.KindMovie, Title: "Inception"}),
	}}
}

var bothKeys = recommend.Keys{TMDB: "tmdb", Gemini: "gem"}

func TestTitleRecommendationsWithoutTMDBKey(t *testing.T) {
	lookup := inceptionLookup()
	suggester := &stubSuggester{}
	svc := recommend.New(lookup, suggester, &stubReconciler{})

	if _, ok := svc.TitleRecommendations(context.Background(), recommend.TitleRequest{ExternalID: "tt1375666", Keys: recommend.Keys{Gemini: "gem"}}); ok {
		t.Fatal("expected no result without tmdb key")
	}
	if lookup.resolveCalls != 0 || suggester.calls() != 0 {
		t.Fatalf("expected no upstream calls, got resolve=%d suggest=%d", lookup.resolveCalls, suggester.calls())
	}
}

func TestTitleRecommendationsNormalizesAndMemoizes(t *testing.T) {
	lookup := inceptionLookup()
	suggester := &stubSuggester{result: media.Found([]media.Suggestion{{Title: "Interstellar", Year: 2014, Kind: media.KindMovie}})}
	reconciler := &stubReconciler{}
	clk := &clock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	svc := recommend.New(lookup, suggester, reconciler,
		recommend.WithClock(clk.Now),
		recommend.WithDefaults(recommend.Defaults{Model: "gemini-2.5-flash", Count: 10}),
	)
	req := recommend.TitleRequest{ExternalID: "tt1375666:1:2", Kind: media.KindMovie, Keys: bothKeys, AI: recommend.AI{Count: 99}}

	first, ok := svc.TitleRecommendations(context.Background(), req)
	if !ok {
		t.Fatal("expected result")
	}
	if first.ExternalID != "tt1375666" || first.SourceTitle != "Inception" || len(first.Entries) != 1 {
		t.Fatalf("unexpected result %#v", first)
	}
	sent := suggester.requests[0]
	if sent.Count != 30 || sent.Model != "gemini-2.5-flash" || sent.Filter != media.FilterSame || sent.SourceTitle != "Inception" {
		t.Fatalf("unexpected gemini request %#v", sent)
	}

	clk.Advance(30 * time.Minute)
	second, ok := svc.TitleRecommendations(context.Background(), req)
	if !ok || len(second.Entries) != len(first.Entries) || second.Entries[0] != first.Entries[0] {
		t.Fatalf("expected identical cached result, got %#v", second)
	}
	if lookup.resolveCalls != 1 || suggester.calls() != 1 {
		t.Fatalf("expected one upstream round, got resolve=%d suggest=%d", lookup.resolveCalls, suggester.calls())
	}

	clk.Advance(31 * time.Minute)
	if _, ok := svc.TitleRecommendations(context.Background(), req); !ok {
		t.Fatal("expected result after expiry")
	}
	if lookup.resolveCalls != 2 || suggester.calls() != 2 {
		t.Fatalf("expected recomputation after the window, got resolve=%d suggest=%d", lookup.resolveCalls, suggester.calls())
	}
}

func TestTitleRecommendationsKeyIncludesSettings(t *testing.T) {
	lookup := inceptionLookup()
	suggester := &stubSuggester{result: media.Found([]media.Suggestion{{Title: "Tenet"}})}
	svc := recommend.New(lookup, suggester, &stubReconciler{})
	base := recommend.TitleRequest{ExternalID: "tt1375666", Kind: media.KindMovie, Keys: bothKeys}

	variants := []recommend.TitleRequest{base, base, base, base, base}
	variants[1].AI.Count = 5
	variants[2].AI.Filter = media.FilterAll
	variants[3].AI.Model = "gemini-2.5-pro"
	variants[4].Keys.Gemini = "other"
	for _, req := range variants {
		svc.TitleRecommendations(context.Background(), req)
	}
	if suggester.calls() != len(variants) {
		t.Fatalf("expected %d distinct computations, got %d", len(variants), suggester.calls())
	}
	svc.TitleRecommendations(context.Background(), variants[2])
	if suggester.calls() != len(variants) {
		t.Fatal("repeat request should hit the cache")
	}
}

func TestTitleRecommendationsUnresolvedNotCached(t *testing.T) {
	lookup := &stubLookup{records: map[string]media.Lookup[media.Record]{
		"tt9": media.Failed[media.Record](errors.New("tmdb down")),
	}}
	svc := recommend.New(lookup, &stubSuggester{}, &stubReconciler{})
	req := recommend.TitleRequest{ExternalID: "tt9", Keys: bothKeys}
	for range 2 {
		if _, ok := svc.TitleRecommendations(context.Background(), req); ok {
			t.Fatal("expected no result for failed lookup")
		}
	}
	if lookup.resolveCalls != 2 {
		t.Fatalf("failed lookups must not be cached, got %d resolves", lookup.resolveCalls)
	}
}

func TestTitleRecommendationsWithoutGeminiKey(t *testing.T) {
	suggester := &stubSuggester{}
	svc := recommend.New(inceptionLookup(), suggester, &stubReconciler{})
	got, ok := svc.TitleRecommendations(context.Background(), recommend.TitleRequest{ExternalID: "tt1375666", Keys: recommend.Keys{TMDB: "tmdb"}})
	if !ok || got.SourceTitle != "Inception" || got.Entries == nil || len(got.Entries) != 0 {
		t.Fatalf("expected source title with empty entries, got %#v %v", got, ok)
	}
	if got.Kind != media.KindMovie {
		t.Fatalf("expected kind from the resolved record, got %q", got.Kind)
	}
	if suggester.calls() != 0 {
		t.Fatal("gemini must not be called without a key")
	}
}

func TestGeneralRecommendationsCachesEmptyFailure(t *testing.T) {
	suggester := &stubSuggester{result: media.Failed[[]media.Suggestion](errors.New("deadline exceeded"))}
	reconciler := &stubReconciler{}
	svc := recommend.New(&stubLookup{}, suggester, reconciler)
	req := recommend.GeneralRequest{Kind: media.KindSeries, Keys: bothKeys}

	got := svc.GeneralRecommendations(context.Background(), req)
	if got.Entries == nil || len(got.Entries) != 0 || got.Kind != media.KindSeries {
		t.Fatalf("expected empty series result, got %#v", got)
	}
	svc.GeneralRecommendations(context.Background(), req)
	if suggester.calls() != 1 {
		t.Fatalf("empty general result should be cached, got %d calls", suggester.calls())
	}
	if reconciler.calls != 0 {
		t.Fatal("reconcile must not run after a failed suggestion")
	}
}

func TestGeneralRecommendationsKeylessNotCached(t *testing.T) {
	suggester := &stubSuggester{result: media.Found([]media.Suggestion{{Title: "Severance", Year: 2022}})}
	svc := recommend.New(&stubLookup{}, suggester, &stubReconciler{})

	if got := svc.GeneralRecommendations(context.Background(), recommend.GeneralRequest{Kind: media.KindSeries, Keys: recommend.Keys{TMDB: "tmdb"}}); len(got.Entries) != 0 {
		t.Fatalf("expected empty result without gemini key, got %#v", got)
	}
	got := svc.GeneralRecommendations(context.Background(), recommend.GeneralRequest{Kind: media.KindSeries, Keys: bothKeys})
	if len(got.Entries) != 1 || got.Entries[0].Kind != media.KindSeries {
		t.Fatalf("keyed caller should not see the keyless outcome, got %#v", got)
	}
	if req := suggester.requests[0]; req.SourceTitle != "" || req.Count != 10 {
		t.Fatalf("unexpected general request %#v", req)
	}
}

func TestSimilarTitles(t *testing.T) {
	lookup := inceptionLookup()
	lookup.similar = media.Found([]media.Record{
		{ExternalID: "tt0816692", Title: "Interstellar", Kind: media.KindMovie, PosterURL: "https://img/i.jpg"},
	})
	svc := recommend.New(lookup, &stubSuggester{}, &stubReconciler{})

	got, ok := svc.SimilarTitles(context.Background(), "tt1375666", "tmdb")
	if !ok || got.SourceTitle != "Inception" || len(got.Entries) != 1 || got.Entries[0].ExternalID != "tt0816692" {
		t.Fatalf("unexpected similar result %#v %v", got, ok)
	}
	svc.SimilarTitles(context.Background(), "tt1375666", "tmdb")
	if lookup.similarCalls != 1 {
		t.Fatalf("similar titles should be cached, got %d fetches", lookup.similarCalls)
	}
	if _, ok := svc.SimilarTitles(context.Background(), "tt1375666", ""); ok {
		t.Fatal("expected no result without tmdb key")
	}
}

func TestCanceledRequestsAreNotCached(t *testing.T) {
	lookup := inceptionLookup()
	suggester := &stubSuggester{result: media.Failed[[]media.Suggestion](context.Canceled)}
	svc := recommend.New(lookup, suggester, &stubReconciler{})
	titleReq := recommend.TitleRequest{ExternalID: "tt1375666", Kind: media.KindMovie, Keys: bothKeys}
	generalReq := recommend.GeneralRequest{Kind: media.KindMovie, Keys: bothKeys}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got, ok := svc.TitleRecommendations(canceled, titleReq); !ok || len(got.Entries) != 0 {
		t.Fatalf("expected empty title result, got %#v %v", got, ok)
	}
	if got := svc.GeneralRecommendations(canceled, generalReq); len(got.Entries) != 0 {
		t.Fatalf("expected empty general result, got %#v", got)
	}

	suggester.setResult(media.Found([]media.Suggestion{{Title: "Interstellar", Year: 2014}}))
	if got, _ := svc.TitleRecommendations(context.Background(), titleReq); len(got.Entries) != 1 {
		t.Fatalf("abandoned title request was cached: %#v", got)
	}
	if got := svc.GeneralRecommendations(context.Background(), generalReq); len(got.Entries) != 1 {
		t.Fatalf("abandoned general request was cached: %#v", got)
	}
	if suggester.calls() != 4 {
		t.Fatalf("expected 4 suggest calls, got %d", suggester.calls())
	}
}

func TestCircuitOpenFailuresAreNotCached(t *testing.T) {
	rejected := fmt.Errorf("%w: gemini: %w", services.ErrTransient, services.ErrCircuitOpen)
	suggester := &stubSuggester{result: media.Failed[[]media.Suggestion](rejected)}
	svc := recommend.New(inceptionLookup(), suggester, &stubReconciler{})
	req := recommend.GeneralRequest{Kind: media.KindSeries, Keys: bothKeys}

	if got := svc.GeneralRecommendations(context.Background(), req); len(got.Entries) != 0 {
		t.Fatalf("expected empty result while the circuit is open, got %#v", got)
	}
	suggester.setResult(media.Found([]media.Suggestion{{Title: "Severance", Year: 2022}}))
	if got := svc.GeneralRecommendations(context.Background(), req); len(got.Entries) != 1 {
		t.Fatalf("circuit-open outcome was cached: %#v", got)
	}
}

func TestSimilarTitlesCanceledNotCached(t *testing.T) {
	lookup := inceptionLookup()
	lookup.similar = media.Failed[[]media.Record](context.Canceled)
	svc := recommend.New(lookup, &stubSuggester{}, &stubReconciler{})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := svc.SimilarTitles(canceled, "tt1375666", "tmdb"); !ok {
		t.Fatal("expected the source title")
	}
	lookup.mu.Lock()
	lookup.similar = media.Found([]media.Record{{ExternalID: "tt0816692", Kind: media.KindMovie, Title: "Interstellar"}})
	lookup.mu.Unlock()
	got, _ := svc.SimilarTitles(context.Background(), "tt1375666", "tmdb")
	if len(got.Entries) != 1 {
		t.Fatalf("abandoned similar lookup was cached: %#v", got)
	}
}
