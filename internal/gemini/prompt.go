package gemini

import (
	"fmt"
	"strings"

	"morelikethis/internal/media"
)

const (
	modeSimilar = "similar"
	modeGeneral = "general"

	similarTemperature = 0.7
	generalTemperature = 0.9
)

type prompt struct {
	mode        string
	text        string
	temperature float64
}

func buildPrompt(req Request, count int) prompt {
	title := strings.TrimSpace(req.SourceTitle)
	if title == "" {
		return prompt{mode: modeGeneral, text: generalPrompt(req.Kind, count), temperature: generalTemperature}
	}
	return prompt{mode: modeSimilar, text: similarPrompt(title, req.Kind, req.Filter, count), temperature: similarTemperature}
}

func pluralLabel(kind media.Kind) string {
	if kind == media.KindSeries {
		return "TV series"
	}
	return "movies"
}

func similarPrompt(title string, kind media.Kind, filter media.ContentFilter, count int) string {
	wanted := pluralLabel(kind)
	typeRule := fmt.Sprintf(`Every entry must be a %s, so set "type" to %q.`, kind.Or(media.KindMovie).Label(), string(kind.Or(media.KindMovie)))
	if filter == media.FilterAll {
		wanted = "movies and TV series"
		typeRule = `The "type" field should be either "movie" or "series".`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a movie recommendation expert. Given the %s %q, suggest exactly %d similar %s that fans would enjoy.\n\n", kind.Label(), title, count, wanted)
	b.WriteString("Consider these factors:\n")
	b.WriteString("- Similar themes, mood, and atmosphere\n")
	b.WriteString("- Similar genres and subgenres\n")
	b.WriteString("- Similar storytelling style\n")
	b.WriteString("- Similar time period or setting\n\n")
	b.WriteString(`Return ONLY a JSON array of objects with "title", "year", and "type" fields. `)
	b.WriteString(typeRule)
	b.WriteString("\nNo explanation, no markdown, just the JSON array.\n\n")
	b.WriteString("Example format:\n")
	b.WriteString(`[{"title": "Movie Name", "year": 2020, "type": "movie"}, {"title": "Series Name", "year": 2019, "type": "series"}]`)
	fmt.Fprintf(&b, "\n\nNow suggest %d %s most similar to %q, ordered by similarity:", count, wanted, title)
	return b.String()
}

func generalPrompt(kind media.Kind, count int) string {
	wanted := pluralLabel(kind)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a movie recommendation expert. Suggest %d must-watch %s that are highly acclaimed, entertaining, and diverse in genres.\n\n", count, wanted)
	b.WriteString("Include a mix of:\n")
	b.WriteString("- Recent critically acclaimed titles\n")
	b.WriteString("- Modern classics from the last fifteen years\n")
	b.WriteString("- Hidden gems that deserve more attention\n")
	b.WriteString("- Different genres (thriller, drama, comedy, sci-fi, etc.)\n\n")
	b.WriteString(`Return ONLY a JSON array of objects with "title" and "year" fields. No explanation, no markdown, just the JSON array.`)
	b.WriteString("\n\nExample format:\n")
	b.WriteString(`[{"title": "Movie Name", "year": 2020}, {"title": "Another Movie", "year": 2019}]`)
	fmt.Fprintf(&b, "\n\nNow suggest %d diverse, highly-rated %s:", count, wanted)
	return b.String()
}
