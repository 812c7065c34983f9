package addon

import (
	"errors"
	"testing"
)

func TestParseUserConfig(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		want    UserConfig
	}{
		{"empty", "", UserConfig{}},
		{"decoded", `{"tmdbApiKey":" abc ","maxResults":12}`, UserConfig{TMDBAPIKey: "abc", MaxResults: 12}},
		{"encoded", "%7B%22geminiApiKey%22%3A%22g%22%2C%22maxResults%22%3A%227%22%7D", UserConfig{GeminiAPIKey: "g", MaxResults: 7}},
		{"junk count", `{"maxResults":"lots"}`, UserConfig{}},
		{"base url", `{"baseUrl":"https://addon.example/"}`, UserConfig{BaseURL: "https://addon.example"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseUserConfig(tc.segment)
			if err != nil {
				t.Fatalf("ParseUserConfig returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseUserConfigRejectsGarbage(t *testing.T) {
	for _, segment := range []string{"%7Bbroken", "[1,2]", "%zz"} {
		if _, err := ParseUserConfig(segment); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig for %q, got %v", segment, err)
		}
	}
}

func TestUserConfigEncodeRoundTrip(t *testing.T) {
	cfg := UserConfig{TMDBAPIKey: "k", MaxResults: 5, BaseURL: "https://addon.example"}
	segment, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := ParseUserConfig(segment)
	if err != nil || back != cfg {
		t.Fatalf("round trip mismatch: %#v %v", back, err)
	}
}

func TestCatalogExtra(t *testing.T) {
	if got := catalogExtra("search=tt1375666.json").Get("search"); got != "tt1375666" {
		t.Fatalf("unexpected search %q", got)
	}
	if got := catalogExtra("search=Mr.%20Robot&skip=20.json").Get("search"); got != "Mr. Robot" {
		t.Fatalf("unexpected search %q", got)
	}
	if got := catalogExtra("").Get("search"); got != "" {
		t.Fatalf("expected empty search, got %q", got)
	}
}
