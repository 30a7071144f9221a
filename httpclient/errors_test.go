package httpclient

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/transcribot/resilience"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{StatusCode: 404, Code: ErrCodeNotFound, Message: "HTTP 404"}, "httpclient: not_found (HTTP 404): HTTP 404"},
		{&Error{Code: ErrCodeConnection, Message: "connection refused"}, "httpclient: connection: connection refused"},
		{&Error{Code: ErrorCode(99), Message: "?"}, "httpclient: unknown: ?"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
		retry  bool
	}{
		{400, ErrCodeValidation, false},
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{409, ErrCodeValidation, false},
		{429, ErrCodeRateLimit, true},
		{500, ErrCodeServer, true},
		{502, ErrCodeServer, true},
		{302, ErrCodeServer, false},
	}
	for _, tt := range tests {
		e := ClassifyStatusCode(tt.status, []byte("body"))
		if e == nil {
			t.Errorf("%d: expected error", tt.status)
			continue
		}
		if e.Code != tt.code || e.Retryable != tt.retry || e.StatusCode != tt.status {
			t.Errorf("%d: got code=%s retry=%v status=%d", tt.status, e.Code, e.Retryable, e.StatusCode)
		}
	}
	for _, status := range []int{200, 201, 204} {
		if e := ClassifyStatusCode(status, nil); e != nil {
			t.Errorf("%d: expected nil, got %v", status, e)
		}
	}
}

func TestHelpers(t *testing.T) {
	timeout := NewTimeoutError(fmt.Errorf("deadline"))
	wrapped := fmt.Errorf("getFile: %w", ClassifyStatusCode(404, nil))

	if !IsNotFound(wrapped) || HasCode(wrapped, ErrCodeAuth) {
		t.Error("wrapped 404 misclassified")
	}
	if !IsRetryable(timeout) || !IsRetryable(NewConnectionError(errors.New("refused"))) {
		t.Error("transport errors should be retryable")
	}
	if IsRetryable(NewValidationError("bad")) || IsRetryable(errors.New("plain")) {
		t.Error("validation and foreign errors are not retryable")
	}
	if !errors.Is(timeout, timeout.Err) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestRetryAfter(t *testing.T) {
	e := ClassifyStatusCode(429, nil)
	e.RetryAfterDelay = 3 * time.Second

	var ra resilience.RetryAfterError
	if !errors.As(fmt.Errorf("send: %w", e), &ra) {
		t.Fatal("Error should satisfy resilience.RetryAfterError")
	}
	if ra.RetryAfter() != 3*time.Second {
		t.Errorf("RetryAfter = %v", ra.RetryAfter())
	}
}
