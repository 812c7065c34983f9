package memo_test

import (
	"sync"
	"testing"
	"time"

	"morelikethis/internal/memo"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCacheFreshnessWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := memo.New[[]string]("test_window", memo.WithClock(clock.Now))
	if cache.TTL() != memo.DefaultTTL {
		t.Fatalf("expected default ttl, got %v", cache.TTL())
	}

	if _, ok := cache.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	cache.Set("k", []string{"tt0816692"})

	clock.Advance(59*time.Minute + 59*time.Second)
	got, ok := cache.Get("k")
	if !ok || len(got) != 1 || got[0] != "tt0816692" {
		t.Fatalf("expected fresh hit, got %v %v", got, ok)
	}

	clock.Advance(time.Second)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("entry must be stale once the ttl has elapsed")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected stale entry to be dropped, len=%d", cache.Len())
	}
}

func TestCacheStoresEmptyValues(t *testing.T) {
	cache := memo.New[[]string]("test_empty")
	cache.Set("general", []string{})
	got, ok := cache.Get("general")
	if !ok || got == nil || len(got) != 0 {
		t.Fatalf("expected cached empty slice, got %#v %v", got, ok)
	}
}

func TestCacheCustomTTLAndOverwrite(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cache := memo.New[int]("test_ttl", memo.WithTTL(time.Minute), memo.WithClock(clock.Now))
	cache.Set("a", 1)
	clock.Advance(50 * time.Second)
	cache.Set("a", 2)
	clock.Advance(50 * time.Second)
	if got, ok := cache.Get("a"); !ok || got != 2 {
		t.Fatalf("overwrite should restart the window, got %d %v", got, ok)
	}
	clock.Advance(10 * time.Second)
	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected expiry after custom ttl")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := memo.New[int]("test_concurrent")
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i%4))
			cache.Set(key, i)
			cache.Get(key)
		}()
	}
	wg.Wait()
	if cache.Len() != 4 {
		t.Fatalf("expected 4 keys, got %d", cache.Len())
	}
}
