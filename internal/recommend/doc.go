// Package recommend orchestrates the recommendation flows behind the addon.
//
// Title recommendations resolve a source IMDb id through TMDB, ask Gemini for
// similar titles, and reconcile the answer back to catalogue entries. General
// recommendations skip the source lookup. Similar titles come straight from
// TMDB. Each flow memoizes its outcome in a memo.Cache keyed by every input
// that changes the answer; API keys enter keys only as truncated SHA-256
// fingerprints. Failed source lookups are never cached, while empty generated
// lists are, so a struggling model is not hammered.
package recommend
