package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/transcribot/httpclient"
)

// APIError is an error reported by the Bot API in its response envelope.
type APIError struct {
	Method      string
	Code        int
	Description string
	retryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// RetryAfter returns the flood-control delay requested by the server.
func (e *APIError) RetryAfter() time.Duration { return e.retryAfter }

// Retryable reports whether repeating the call can succeed.
func (e *APIError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// IsRetryable classifies client errors for the retry loop.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return httpclient.IsRetryable(err)
}

// redactedError hides the bot token that transport errors echo in URLs.
type redactedError struct {
	err   error
	token string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.token, "<token>")
}

func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if err == nil || token == "" {
		return err
	}
	return &redactedError{err: err, token: token}
}
