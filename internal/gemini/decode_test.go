package gemini

import (
	"strings"
	"testing"

	"morelikethis/internal/media"
)

func TestStripCodeFence(t *testing.T) {
	plain := `[{"title":"Interstellar","year":2014}]`
	tests := []struct {
		name  string
		input string
	}{
		{"plain", plain},
		{"json fence", "```json\n" + plain + "\n```"},
		{"bare fence", "```\n" + plain + "\n```"},
		{"padded", "  \n```json" + plain + "```  \n"},
		{"leading only", "```json\n" + plain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.input); got != plain {
				t.Fatalf("StripCodeFence(%q) = %q", tc.input, got)
			}
		})
	}
}

func TestParseSuggestionsFencedEqualsPlain(t *testing.T) {
	plain := `[{"title":"Interstellar","year":2014,"type":"movie"},{"title":"Dark","year":"2017","type":"series"}]`
	a, err := ParseSuggestions(plain)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	b, err := ParseSuggestions("```json\n" + plain + "\n```")
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if len(a.Suggestions) != 2 || len(b.Suggestions) != 2 {
		t.Fatalf("unexpected lengths %d and %d", len(a.Suggestions), len(b.Suggestions))
	}
	for i := range a.Suggestions {
		if a.Suggestions[i] != b.Suggestions[i] {
			t.Fatalf("suggestion %d differs: %#v vs %#v", i, a.Suggestions[i], b.Suggestions[i])
		}
	}
	want := media.Suggestion{Title: "Dark", Year: 2017, Kind: media.KindSeries}
	if a.Suggestions[1] != want {
		t.Fatalf("unexpected suggestion %#v", a.Suggestions[1])
	}
}

func TestParseSuggestionsValidatesEachElement(t *testing.T) {
	payload := `[
		{"title":"Arrival","year":2016},
		"just a string",
		{"title":""},
		{"title":42,"year":2000},
		{"year":1999},
		{"title":"Moon","year":"soon","type":"documentary"},
		{"title":"Sunshine","year":2007.5,"type":"film"},
		null
	]`
	parsed, err := ParseSuggestions(payload)
	if err != nil {
		t.Fatalf("ParseSuggestions returned error: %v", err)
	}
	want := []media.Suggestion{
		{Title: "Arrival", Year: 2016},
		{Title: "Moon"},
		{Title: "Sunshine", Kind: media.KindMovie},
	}
	if len(parsed.Suggestions) != len(want) {
		t.Fatalf("expected %d suggestions, got %#v", len(want), parsed.Suggestions)
	}
	for i := range want {
		if parsed.Suggestions[i] != want[i] {
			t.Fatalf("suggestion %d = %#v, want %#v", i, parsed.Suggestions[i], want[i])
		}
	}
	if parsed.Dropped != 5 {
		t.Fatalf("expected 5 dropped elements, got %d", parsed.Dropped)
	}
}

func TestParseSuggestionsRejectsNonArray(t *testing.T) {
	for _, payload := range []string{"", "null", `{"title":"Heat"}`, "Sure! Here are some movies", "[{"} {
		if _, err := ParseSuggestions(payload); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestBuildPromptVariants(t *testing.T) {
	similar := buildPrompt(Request{SourceTitle: "Inception", Kind: media.KindMovie, Filter: media.FilterSame}, 5)
	if similar.mode != modeSimilar || similar.temperature != similarTemperature {
		t.Fatalf("unexpected similar prompt %#v", similar)
	}
	if !strings.Contains(similar.text, `Given the movie "Inception", suggest exactly 5 similar movies`) {
		t.Fatalf("similar prompt missing source line: %s", similar.text)
	}

	mixed := buildPrompt(Request{SourceTitle: "Dark", Kind: media.KindSeries, Filter: media.FilterAll}, 3)
	if !strings.Contains(mixed.text, "similar movies and TV series") || !strings.Contains(mixed.text, `either "movie" or "series"`) {
		t.Fatalf("all-filter prompt should ask for both kinds: %s", mixed.text)
	}

	general := buildPrompt(Request{Kind: media.KindSeries}, 30)
	if general.mode != modeGeneral || general.temperature != generalTemperature {
		t.Fatalf("unexpected general prompt %#v", general)
	}
	if !strings.Contains(general.text, "Suggest 30 must-watch TV series") {
		t.Fatalf("general prompt missing count: %s", general.text)
	}
}
