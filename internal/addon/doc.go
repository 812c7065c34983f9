// Package addon serves the Stremio addon protocol.
//
// Routes are mounted twice: at the root, and below a {config} path segment
// carrying the caller's URL-encoded JSON settings (API keys, model, result
// count, content filter, base URL). Per-request keys override the operator
// defaults from the server config.
//
// Resources:
//   - /manifest.json
//   - /catalog/{type}/{id}[/{extra}].json: title recommendations when the
//     search extra is an IMDb id, general recommendations otherwise
//   - /meta/{type}/{id}.json: TMDB similar titles as detail-page links
//   - /stream/{type}/{id}.json: a single external link that opens the
//     discover catalogue seeded with the current title
//
// Handlers never fail a protocol request because of an upstream problem;
// they answer 200 with an empty payload instead. Only an undecodable config
// segment yields 400.
package addon
