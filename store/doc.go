// Package store is the content store: accounts, pending jobs and cached
// transcription results.
//
// Store is the only interface the rest of the service sees. GormStore
// implements it over the database package; Memory is an in-process fake with
// the same semantics for tests. A job's presence in the store is the only
// work-pending signal, and a cached result is never updated once written.
package store
