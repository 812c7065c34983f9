// Package gemini asks Google's Gemini generateContent API for title
// suggestions.
//
// Two prompt variants exist: "similar" (seeded with a source title, filtered
// to the same kind or open to both) and "general" (a diverse list of acclaimed
// titles). Model output is treated as untrusted text: code fences are
// stripped, the payload must be a JSON array, and every element is validated
// on its own so one malformed entry does not discard the rest.
//
// Each call is bounded by a per-call timeout and never retried. Failures come
// back as media.Failed so callers can degrade to an empty list.
package gemini
