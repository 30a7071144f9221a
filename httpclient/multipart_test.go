package httpclient

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func readParts(t *testing.T, r io.Reader, contentType string) map[string]string {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("bad content type %q: %v", contentType, err)
	}
	parts := map[string]string{}
	mr := multipart.NewReader(r, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		data, _ := io.ReadAll(part)
		key := part.FormName()
		if part.FileName() != "" {
			key += ":" + part.FileName()
		}
		parts[key] = string(data)
	}
	return parts
}

func TestMultipartBody_FieldsAndSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ogg.OUTPUT.wav.txt")
	if err := os.WriteFile(path, []byte("from disk"), 0o644); err != nil {
		t.Fatal(err)
	}
	mp := &MultipartBody{
		Fields: map[string]string{"chat_id": "42"},
		Files: []FileField{
			{FieldName: "document", FileName: "text.txt", ContentType: "text/plain", Path: path},
			{FieldName: "data", FileName: "d.bin", Data: []byte("bytes")},
			{FieldName: "reader", FileName: "r.bin", Reader: strings.NewReader("stream")},
		},
	}
	r, ct, err := mp.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	parts := readParts(t, r, ct)
	want := map[string]string{
		"chat_id":           "42",
		"document:text.txt": "from disk",
		"data:d.bin":        "bytes",
		"reader:r.bin":      "stream",
	}
	for k, v := range want {
		if parts[k] != v {
			t.Errorf("part %s = %q, want %q", k, parts[k], v)
		}
	}
}

func TestMultipartBody_MissingPath(t *testing.T) {
	mp := &MultipartBody{Files: []FileField{{FieldName: "document", FileName: "x", Path: "/nonexistent/x.json"}}}
	if _, _, err := mp.encode(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMultipartBody_RetryReopensPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	os.WriteFile(path, []byte(`{"text":"hi"}`), 0o644)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := readParts(t, r.Body, r.Header.Get("Content-Type"))
		if parts["document:text.json"] != `{"text":"hi"}` {
			t.Errorf("attempt %d: body not replayed: %v", calls.Load()+1, parts)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	retry := DefaultRetryConfig()
	retry.InitialBackoff = time.Millisecond
	c, _ := New(Config{BaseURL: srv.URL, Retry: retry})
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/sendDocument",
		Body:   &MultipartBody{Files: []FileField{{FieldName: "document", FileName: "text.json", Path: path}}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestEscapeQuotes(t *testing.T) {
	if got := escapeQuotes(`a"b\c`); got != `a\"b\\c` {
		t.Errorf("escapeQuotes = %q", got)
	}
}
