// Package services defines shared utilities consumed by the upstream clients
// and the recommendation pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (transient vs caller error) without string matching.
//   - A circuit breaker that short-circuits calls to an upstream that is
//     clearly down, without ever retrying.
//
// Use these helpers when wiring new upstream calls so error handling and
// observability stay uniform across clients.
package services
