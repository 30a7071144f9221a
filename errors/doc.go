// Package errors provides the structured application error used across
// transcribot: a machine-readable code, a retryable flag, an HTTP status for
// the admin API and an optional cause.
package errors
