// Package main hosts the morelikethis CLI entrypoint and command graph.
//
// The Cobra command tree runs the Stremio addon server and exposes the same
// recommendation pipeline for one-off terminal use: title recommendations,
// general discovery lists, TMDB similar titles, and upstream key checks. It
// centralizes configuration resolution and logger construction so subcommands
// only describe their flags and output.
//
// Keep this package thin. New behaviour belongs in the internal packages and is
// surfaced here through a dedicated command or flag.
package main
