// Package media defines the data model shared by the recommendation pipeline.
//
// Records come from TMDB and are trusted. Suggestions come from the
// generative model and are not: they only reach callers after reconciliation
// turns them into Entries. Lookup carries the outcome of every leaf client
// call so orchestration code can tell "no match" apart from "upstream broke"
// without treating either as fatal.
package media
