package httpclient

import (
	"io"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL.
	Path string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body: *MultipartBody, io.Reader, []byte, string,
	// or any value that will be JSON-encoded. An io.Reader cannot be replayed
	// by retries.
	Body any
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StreamResponse wraps a response whose body has not been read.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	// ContentLength is -1 when unknown.
	ContentLength int64
	Body          io.ReadCloser
}

// Close releases the response body.
func (r *StreamResponse) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
