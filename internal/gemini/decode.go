package gemini

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"morelikethis/internal/media"
)

// Parsed is the outcome of decoding a model answer.
type Parsed struct {
	Suggestions []media.Suggestion
	// Dropped counts array elements that failed validation.
	Dropped int
}

// StripCodeFence removes a leading "```json" or "```" marker and a trailing
// "```" marker, then trims surrounding whitespace.
func StripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```json") {
		clean = clean[len("```json"):]
	} else if strings.HasPrefix(clean, "```") {
		clean = clean[len("```"):]
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

type rawSuggestion struct {
	Title json.RawMessage `json:"title"`
	Year  json.RawMessage `json:"year"`
	Type  json.RawMessage `json:"type"`
}

// ParseSuggestions decodes a JSON array of {title, year, type} objects,
// optionally fenced. Elements are validated individually: anything that is not
// an object with a non-empty string title is dropped. A payload that is not an
// array is an error.
func ParseSuggestions(text string) (Parsed, error) {
	clean := StripCodeFence(text)
	if clean == "" {
		return Parsed{}, errors.New("empty payload")
	}
	if !strings.HasPrefix(clean, "[") {
		return Parsed{}, fmt.Errorf("expected json array (payload snippet: %s)", summarizePayloadSnippet(clean))
	}
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(clean), &elements); err != nil {
		return Parsed{}, fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(clean))
	}

	parsed := Parsed{Suggestions: make([]media.Suggestion, 0, len(elements))}
	for _, element := range elements {
		suggestion, ok := decodeSuggestion(element)
		if !ok {
			parsed.Dropped++
			continue
		}
		parsed.Suggestions = append(parsed.Suggestions, suggestion)
	}
	return parsed, nil
}

func decodeSuggestion(element json.RawMessage) (media.Suggestion, bool) {
	var raw rawSuggestion
	if err := json.Unmarshal(element, &raw); err != nil {
		return media.Suggestion{}, false
	}
	title, ok := stringValue(raw.Title)
	if !ok || title == "" {
		return media.Suggestion{}, false
	}
	kind, _ := stringValue(raw.Type)
	return media.Suggestion{
		Title: title,
		Year:  yearValue(raw.Year),
		Kind:  media.ParseKind(kind),
	}, true
}

func stringValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// yearValue accepts a JSON number or a numeric string. Anything else is 0.
func yearValue(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0
	}
	switch v := value.(type) {
	case float64:
		if v <= 0 || v != math.Trunc(v) || v > math.MaxInt32 {
			return 0
		}
		return int(v)
	case string:
		year, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || year <= 0 {
			return 0
		}
		return year
	default:
		return 0
	}
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 200
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
