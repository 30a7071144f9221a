// Package worker drains the job queue.
//
// Each pass lists every pending job and runs them one at a time:
// fetch, fingerprint, cache lookup, then either replay the cached transcript
// or run the engine and deliver the transcript with its artifacts. Whatever
// happens, the job's scratch files are purged and the job is removed from
// the store. A job is attempted exactly once.
//
//	w, err := worker.New(cfg, worker.Dependencies{...}, log)
//	registry.Register(w)
package worker
