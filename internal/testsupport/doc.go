// Package testsupport provides shared helpers for tests: a config builder and
// in-process fakes for the TMDB and Gemini HTTP APIs.
package testsupport
