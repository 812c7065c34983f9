// Package tmdb talks to The Movie Database v3 API.
//
// Client is a thin typed wrapper over the find, similar, external_ids, and
// search endpoints. API keys are passed per call since each addon user may
// bring their own. Non-200 answers surface as *StatusError tagged with the
// services error markers so the circuit breaker only counts transient
// failures.
//
// Resolver layers the canonical lookups on top: IMDb id to record, similar
// titles with IMDb cross-references, and title/year search. Each returns a
// media.Lookup so callers can tell "not found" apart from "lookup failed".
package tmdb
