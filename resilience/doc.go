// Package resilience provides the fault-tolerance primitives used around
// outbound calls: retry with exponential backoff, a circuit breaker for the
// transcription sidecar and a token-bucket rate limiter for Telegram sends.
package resilience
