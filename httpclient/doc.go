// Package httpclient is the outbound HTTP client used for the Telegram Bot
// API, media downloads and the whisper sidecar.
//
// Requests carry JSON, multipart or raw bodies. Non-2xx responses are
// classified into *Error values whose Retryable flag drives the optional
// retry policy, and a Retry-After header is honoured as the minimum backoff.
// Multipart file fields can name a path on disk; the file is opened and
// streamed each time the request is sent, so retries re-read it.
//
//	c, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.telegram.org", Retry: httpclient.DefaultRetryConfig()})
//	resp, err := httpclient.Get[getMeResponse](c, ctx, "/bot"+token+"/getMe")
package httpclient
