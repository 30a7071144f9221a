package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const token = "123:secret"

// fakeAPI routes /bot<token>/<method> to handlers.
type fakeAPI struct {
	t        *testing.T
	handlers map[string]http.HandlerFunc
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + token + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		f.t.Errorf("unexpected path %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	h, ok := f.handlers[strings.TrimPrefix(r.URL.Path, prefix)]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func newClient(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(&fakeAPI{t: t, handlers: handlers})
	t.Cleanup(srv.Close)
	c, err := New(Config{Token: token, APIURL: srv.URL, RateLimit: 1000}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.retry.InitialBackoff = time.Millisecond
	c.retry.Jitter = 0
	return c
}

func ok(w http.ResponseWriter, result string) {
	w.Write([]byte(`{"ok":true,"result":` + result + `}`))
}

func decode(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestGetMe(t *testing.T) {
	c := newClient(t, map[string]http.HandlerFunc{
		"getMe": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("getMe should be a GET, got %s", r.Method)
			}
			ok(w, `{"id":7,"is_bot":true,"first_name":"Transcribot","username":"transcribot_bot"}`)
		},
	})
	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != 7 || me.Username != "transcribot_bot" || !me.IsBot {
		t.Errorf("unexpected user %+v", me)
	}
}

func TestGetUpdates(t *testing.T) {
	c := newClient(t, map[string]http.HandlerFunc{
		"getUpdates": func(w http.ResponseWriter, r *http.Request) {
			body := decode(t, r)
			if body["offset"] != float64(11) || body["timeout"] != float64(30) {
				t.Errorf("unexpected body %v", body)
			}
			ok(w, `[
				{"update_id":11,"message":{"message_id":5,"chat":{"id":42,"type":"private"},"date":1700000000,
				 "voice":{"file_id":"AwAD","duration":12,"mime_type":"audio/ogg","file_size":2048}}},
				{"update_id":12,"my_chat_member":{"chat":{"id":42,"type":"private"},"from":{"id":42,"first_name":"A"},"date":1,
				 "old_chat_member":{"status":"member","user":{"id":7}},"new_chat_member":{"status":"kicked","user":{"id":7}}}}
			]`)
		},
	})
	updates, err := c.GetUpdates(context.Background(), 11, 30*time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates", len(updates))
	}
	m, found := updates[0].Message.Media()
	if !found || m.FileID != "AwAD" || m.Duration != 12 || m.MimeType != "audio/ogg" {
		t.Errorf("unexpected media %+v", m)
	}
	if !updates[1].MyChatMember.Revoked() {
		t.Error("kicked should be revoked")
	}
}

func TestResolveDownloadURL(t *testing.T) {
	c := newClient(t, map[string]http.HandlerFunc{
		"getFile": func(w http.ResponseWriter, r *http.Request) {
			if decode(t, r)["file_id"] != "AwAD" {
				t.Error("file_id not sent")
			}
			ok(w, `{"file_id":"AwAD","file_path":"voice/file_1.oga"}`)
		},
	})
	url, err := c.ResolveDownloadURL(context.Background(), "AwAD")
	if err != nil {
		t.Fatalf("ResolveDownloadURL: %v", err)
	}
	if !strings.HasSuffix(url, "/file/bot"+token+"/voice/file_1.oga") {
		t.Errorf("url = %s", url)
	}
}

func TestSendMessage_Reply(t *testing.T) {
	c := newClient(t, map[string]http.HandlerFunc{
		"sendMessage": func(w http.ResponseWriter, r *http.Request) {
			body := decode(t, r)
			if body["chat_id"] != float64(42) || body["text"] != "hello" {
				t.Errorf("unexpected body %v", body)
			}
			reply, _ := body["reply_parameters"].(map[string]any)
			if reply["message_id"] != float64(5) || reply["allow_sending_without_reply"] != true {
				t.Errorf("unexpected reply parameters %v", body["reply_parameters"])
			}
			ok(w, `{"message_id":6,"chat":{"id":42,"type":"private"},"date":1}`)
		},
	})
	if err := c.SendMessage(context.Background(), 42, "hello", 5); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestSendDocument_Multipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ogg.OUTPUT.wav.json")
	os.WriteFile(path, []byte(`{"text":"hi"}`), 0o644)

	c := newClient(t, map[string]http.HandlerFunc{
		"sendDocument": func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if r.FormValue("chat_id") != "42" || !strings.Contains(r.FormValue("reply_parameters"), `"message_id":5`) {
				t.Errorf("unexpected fields %v", r.MultipartForm.Value)
			}
			f, hdr, err := r.FormFile("document")
			if err != nil {
				t.Fatalf("document: %v", err)
			}
			data, _ := io.ReadAll(f)
			if hdr.Filename != "text.json" || string(data) != `{"text":"hi"}` {
				t.Errorf("unexpected document %q %q", hdr.Filename, data)
			}
			ok(w, `{"message_id":7,"chat":{"id":42,"type":"private"},"date":1}`)
		},
	})
	if err := c.SendDocument(context.Background(), 42, path, "text.json", 5); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
}

func TestAPIError_NotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, map[string]http.HandlerFunc{
		"sendMessage": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		},
	})
	err := c.SendMessage(context.Background(), 1, "x", 0)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFloodControlRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, map[string]http.HandlerFunc{
		"sendMessage": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 1","parameters":{"retry_after":1}}`))
				return
			}
			ok(w, `{"message_id":1,"chat":{"id":1,"type":"private"},"date":1}`)
		},
	})
	start := time.Now()
	if err := c.SendMessage(context.Background(), 1, "x", 0); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if time.Since(start) < time.Second {
		t.Error("retry_after should be honored")
	}
}

func TestErrorsHideToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{Token: token, APIURL: url, MaxAttempts: 1}, nil)
	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("token leaked in error: %v", err)
	}
	if !IsRetryable(err) {
		t.Errorf("connection errors should be retryable: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Token: "t"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.RequestTimeout = cfg.PollTimeout
	if err := cfg.Validate(); err == nil {
		t.Error("request timeout must exceed poll timeout")
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("token is required")
	}
}

func TestMessageMedia(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
		mime string
	}{
		{"audio", Message{Audio: &Audio{FileID: "a", MimeType: "audio/mpeg", FileName: "song.mp3"}}, true, "audio/mpeg"},
		{"video", Message{Video: &Video{FileID: "v", MimeType: "video/mp4"}}, true, "video/mp4"},
		{"audio document", Message{Document: &Document{FileID: "d", MimeType: "audio/ogg"}}, true, "audio/ogg"},
		{"pdf document", Message{Document: &Document{FileID: "d", MimeType: "application/pdf"}}, false, ""},
		{"text", Message{Text: "hi"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, found := tt.msg.Media()
			if found != tt.want || m.MimeType != tt.mime {
				t.Errorf("Media() = %+v, %v", m, found)
			}
		})
	}
}
