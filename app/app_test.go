package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/transcribot/bootstrap"
	"github.com/kbukum/transcribot/config"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/telegram"
	"github.com/kbukum/transcribot/transcription"
)

const token = "123:secret"

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	yml := "name: transcribot\nenvironment: production\nbot:\n  max_duration: 300\nworker:\n  interval: 5s\n"
	if err := os.WriteFile(file, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_TOKEN", token)
	t.Setenv("WHISPER_MODEL", "small")
	t.Setenv("WHISPER_LANGUAGE", "ru")
	t.Setenv("BOT_ADMIN_IDS", "1,2")

	cfg, err := Load(config.WithConfigFile(file), config.WithEnvFile(filepath.Join(dir, ".env.missing")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Telegram.Token != token {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Transcription.Model != "small" || cfg.Transcription.Language != "ru" {
		t.Errorf("whisper aliases not applied: %+v", cfg.Transcription)
	}
	if cfg.Bot.MaxDuration != 300 || cfg.Worker.Interval != 5*time.Second {
		t.Errorf("file values not applied: bot=%+v worker=%+v", cfg.Bot, cfg.Worker)
	}
	if len(cfg.Bot.AdminIDs) != 2 || cfg.Bot.AdminIDs[1] != 2 {
		t.Errorf("admin ids = %v", cfg.Bot.AdminIDs)
	}
	if cfg.Telegram.PollTimeout != 30*time.Second {
		t.Errorf("poll timeout default = %s", cfg.Telegram.PollTimeout)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = token
	cfg.ApplyDefaults()

	if cfg.Name != ServiceName || cfg.Version == "" {
		t.Errorf("service defaults = %q %q", cfg.Name, cfg.Version)
	}
	if cfg.Bot.MaxDuration != 600 || cfg.Worker.Interval != 10*time.Second {
		t.Errorf("unexpected defaults bot=%+v worker=%+v", cfg.Bot, cfg.Worker)
	}
	if cfg.Transcription.Provider != "whisper" || cfg.Server.Enabled || cfg.Redis.Enabled {
		t.Errorf("unexpected defaults transcription=%+v", cfg.Transcription)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDownloadClientConfig(t *testing.T) {
	cfg := downloadClientConfig()
	if cfg.Timeout >= 0 {
		t.Errorf("downloads should have no client timeout, got %v", cfg.Timeout)
	}
	if cfg.Headers["User-Agent"] == "" {
		t.Error("downloads should send a User-Agent")
	}
}

func TestConfigValidate_MissingToken(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "telegram.token") {
		t.Fatalf("expected telegram.token error, got %v", err)
	}
}

type fakeIdentity struct {
	user *telegram.User
	err  error
}

func (f fakeIdentity) GetMe(context.Context) (*telegram.User, error) { return f.user, f.err }

type fakeCounter struct {
	accounts, jobs int64
	err            error
}

func (f fakeCounter) CountAccounts(context.Context) (int64, error) { return f.accounts, f.err }
func (f fakeCounter) CountJobs(context.Context) (int64, error)     { return f.jobs, nil }

type fakeEngine struct{}

func (fakeEngine) Name() string                     { return "sidecar" }
func (fakeEngine) IsAvailable(context.Context) bool { return true }
func (fakeEngine) Transcribe(context.Context, transcription.Request) transcription.Result {
	return transcription.Result{}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &Config{}
	cfg.Telegram.Token = token
	a, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return a
}

func facts(a *App) map[string]any {
	out := make(map[string]any)
	for _, f := range a.Summary.Facts() {
		out[f.Key] = f.Value
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Run("identity known", func(t *testing.T) {
		a := newTestApp(t)
		id := fakeIdentity{user: &telegram.User{ID: 99, Username: "testbot"}}
		if err := summarize(context.Background(), a, fakeCounter{accounts: 3, jobs: 2}, id, fakeEngine{}); err != nil {
			t.Fatalf("summarize: %v", err)
		}
		got := facts(a)
		if got["bot"] != "@testbot (99)" || got["accounts"] != int64(3) || got["pending_jobs"] != int64(2) {
			t.Errorf("unexpected facts %v", got)
		}
		if got["engine"] != "sidecar (model base, language auto)" {
			t.Errorf("engine = %v", got["engine"])
		}
	})

	t.Run("identity unavailable", func(t *testing.T) {
		a := newTestApp(t)
		id := fakeIdentity{err: errors.New("unauthorized")}
		if err := summarize(context.Background(), a, fakeCounter{}, id, fakeEngine{}); err != nil {
			t.Fatalf("summarize: %v", err)
		}
		if got := facts(a)["bot"]; got != "unknown" {
			t.Errorf("bot = %v", got)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		a := newTestApp(t)
		err := summarize(context.Background(), a, fakeCounter{err: errors.New("locked")}, fakeIdentity{}, fakeEngine{})
		if err == nil || !strings.Contains(err.Error(), "count accounts") {
			t.Errorf("expected count error, got %v", err)
		}
	})
}

// fakeTelegram is a Bot API plus file server. Queued updates are handed out
// once; empty polls return after a short pause.
type fakeTelegram struct {
	t *testing.T

	mu        sync.Mutex
	queue     []string
	nextID    int64
	texts     []string
	documents []string
}

func (f *fakeTelegram) push(messageID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.queue = append(f.queue, fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,
		"from":{"id":42,"is_bot":false,"first_name":"Alice","username":"alice"},
		"chat":{"id":42,"type":"private"},"date":1700000000,
		"voice":{"file_id":"AwAD","duration":12,"mime_type":"audio/ogg","file_size":10}}}`, f.nextID, messageID))
}

func (f *fakeTelegram) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...), append([]string(nil), f.documents...)
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/file/bot"+token+"/voice/file_1.oga" {
		w.Write([]byte("OggS-audio"))
		return
	}
	method, found := strings.CutPrefix(r.URL.Path, "/bot"+token+"/")
	if !found {
		http.NotFound(w, r)
		return
	}
	switch method {
	case "getMe":
		reply(w, `{"id":99,"is_bot":true,"first_name":"Test","username":"testbot"}`)
	case "getUpdates":
		f.mu.Lock()
		batch := f.queue
		f.queue = nil
		f.mu.Unlock()
		if len(batch) == 0 {
			select {
			case <-r.Context().Done():
			case <-time.After(20 * time.Millisecond):
			}
		}
		reply(w, "["+strings.Join(batch, ",")+"]")
	case "getFile":
		reply(w, `{"file_id":"AwAD","file_path":"voice/file_1.oga"}`)
	case "sendMessage":
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("decode sendMessage: %v", err)
		}
		f.mu.Lock()
		f.texts = append(f.texts, body.Text)
		f.mu.Unlock()
		reply(w, `{"message_id":1,"chat":{"id":42,"type":"private"},"date":1}`)
	case "sendDocument":
		_, hdr, err := r.FormFile("document")
		if err != nil {
			f.t.Errorf("sendDocument form: %v", err)
		} else {
			f.mu.Lock()
			f.documents = append(f.documents, hdr.Filename)
			f.mu.Unlock()
		}
		reply(w, `{"message_id":2,"chat":{"id":42,"type":"private"},"date":1}`)
	default:
		http.NotFound(w, r)
	}
}

func reply(w http.ResponseWriter, result string) {
	w.Write([]byte(`{"ok":true,"result":` + result + `}`))
}

func newSidecar(t *testing.T, calls *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/audio/transcriptions":
			calls.Add(1)
			w.Write([]byte(`{"text":" hello world","segments":[{"start":0,"end":1.5,"text":" hello world"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func count(items []string, prefix string) int {
	n := 0
	for _, s := range items {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

func pendingJobs(t *testing.T, port int) int64 {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/jobs", port))
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	var body struct {
		Data struct {
			Pending int64 `json:"pending"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Errorf("decode /jobs: %v", err)
		return -1
	}
	return body.Data.Pending
}

func TestRun_EndToEnd(t *testing.T) {
	tg := &fakeTelegram{t: t}
	api := httptest.NewServer(tg)
	t.Cleanup(api.Close)

	var transcriptions atomic.Int32
	sc := newSidecar(t, &transcriptions)
	mr := miniredis.RunT(t)
	port := freePort(t)

	cfg := &Config{}
	cfg.Telegram.Token = token
	cfg.Telegram.APIURL = api.URL
	cfg.Telegram.RateLimit = 1000
	cfg.Database.DSN = ":memory:"
	cfg.Storage.BasePath = t.TempDir()
	cfg.Worker.Interval = 20 * time.Millisecond
	cfg.Transcription.Provider = "sidecar"
	cfg.Transcription.Sidecar.URL = sc.URL
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Server.Enabled = true
	cfg.Server.Port = port

	var summary bytes.Buffer
	a, err := New(cfg, bootstrap.WithLogger(logger.Nop()), bootstrap.WithSummaryOutput(&summary))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ready := make(chan struct{})
	a.OnReady(func(context.Context) error {
		close(ready)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("app not ready")
	}

	tg.push(30)
	waitFor(t, "first transcript", func() bool {
		texts, docs := tg.snapshot()
		return count(texts, "✅ Conversion completed successfully") == 1 && len(docs) == 3
	})
	waitFor(t, "queue drained", func() bool { return pendingJobs(t, port) == 0 })

	// Same audio again: answered from the cache without the engine.
	tg.push(31)
	waitFor(t, "cached transcript", func() bool {
		texts, _ := tg.snapshot()
		return count(texts, "✅ Conversion completed successfully") == 2
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(20 * time.Second):
		t.Fatal("shutdown timed out")
	}

	texts, docs := tg.snapshot()
	if got := count(texts, "✅ Your request has been logged"); got != 2 {
		t.Errorf("accepted replies = %d, texts %q", got, texts)
	}
	for _, s := range texts {
		if strings.HasPrefix(s, "✅ Conversion completed successfully") && !strings.Contains(s, "hello world") {
			t.Errorf("transcript missing from %q", s)
		}
	}
	if len(docs) != 3 || docs[0] != "text.json" {
		t.Errorf("documents = %v", docs)
	}
	if n := transcriptions.Load(); n != 1 {
		t.Errorf("engine called %d times, want 1", n)
	}
	if len(mr.Keys()) == 0 {
		t.Error("transcript not cached in redis")
	}

	out := summary.String()
	for _, want := range []string{"@testbot (99)", "Pending jobs", "worker", "poller", "/jobs"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
