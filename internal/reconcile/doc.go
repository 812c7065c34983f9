// Package reconcile maps generated suggestions onto canonical catalogue
// entries.
//
// Every suggestion is searched concurrently with a bounded errgroup. Workers
// write into their own slot of a pre-sized slice, so output order always
// matches suggestion order. Suggestions that do not resolve to a record with
// an IMDb id are dropped.
package reconcile
