// Package memo provides the in-memory memo tables behind the recommendation
// service: a generic string-keyed cache with an injectable clock and a fixed
// freshness window.
package memo
