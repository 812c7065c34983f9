package imdbid_test

import (
	"testing"

	"morelikethis/internal/imdbid"
)

func TestBase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "episode composite", input: "tt0903747:1:2", want: "tt0903747"},
		{name: "double digit season", input: "tt0944947:10:11", want: "tt0944947"},
		{name: "bare id", input: "tt1375666", want: "tt1375666"},
		{name: "no prefix", input: "kitsu:1234", want: "kitsu:1234"},
		{name: "prefix without digits", input: "tt", want: "tt"},
		{name: "empty", input: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := imdbid.Base(tc.input); got != tc.want {
				t.Fatalf("Base(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !imdbid.Valid("tt0816692:1:1") {
		t.Fatal("expected episode id to be valid")
	}
	if imdbid.Valid("tmdb:27205") {
		t.Fatal("expected non-imdb id to be invalid")
	}
}
