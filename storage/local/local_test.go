package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/storage"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "downloads"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestUploadDownloadDelete(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "abc.ogg", strings.NewReader("audio")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ok, err := s.Exists(ctx, "abc.ogg")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "abc.ogg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "audio" {
		t.Errorf("content = %q", data)
	}

	if err := s.Delete(ctx, "abc.ogg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "abc.ogg"); err != nil {
		t.Errorf("deleting a missing file should be a no-op, got %v", err)
	}
	if _, err := s.Download(ctx, "abc.ogg"); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAbsolutePathsRoundTrip(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	abs := s.LocalPath("f1.mp3")
	if !filepath.IsAbs(abs) || filepath.Dir(abs) != s.BasePath() {
		t.Fatalf("LocalPath = %q", abs)
	}
	if err := s.Upload(ctx, abs, strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if ok, _ := s.Exists(ctx, "f1.mp3"); !ok {
		t.Error("absolute and relative keys should address the same file")
	}
}

func TestUploadRemovesPartialFile(t *testing.T) {
	s := newStorage(t)
	err := s.Upload(context.Background(), "partial.ogg", io.MultiReader(strings.NewReader("half"), failingReader{}))
	if err == nil {
		t.Fatal("expected write error")
	}
	if _, statErr := os.Stat(s.LocalPath("partial.ogg")); !os.IsNotExist(statErr) {
		t.Errorf("partial file should be removed, stat err = %v", statErr)
	}
}

func TestList(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	for _, name := range []string{"b.ogg", "a.ogg", "a.ogg.OUTPUT.wav"} {
		_ = s.Upload(ctx, name, strings.NewReader(name))
	}
	files, err := s.List(ctx, "a.ogg")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 || files[0].Path != "a.ogg" || files[1].Path != "a.ogg.OUTPUT.wav" {
		t.Errorf("unexpected listing: %+v", files)
	}
}

func TestFactoryRegistered(t *testing.T) {
	s, err := storage.New(storage.Config{BasePath: filepath.Join(t.TempDir(), "scratch")}, nil)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := s.(*Storage); !ok {
		t.Errorf("expected *local.Storage, got %T", s)
	}
}

func TestComponentCreatesScratchDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	comp := storage.NewComponent(storage.Config{BasePath: dir}, nil)
	ctx := context.Background()
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("scratch dir not created: %v", err)
	}
	if h := comp.Health(ctx); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
	_ = comp.Stop(ctx)
}
