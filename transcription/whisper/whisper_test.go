package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/transcribot/process"
	"github.com/kbukum/transcribot/transcription"
)

// fakeRunner records commands and emulates the tools' side effects.
type fakeRunner struct {
	calls      []process.Command
	failBinary string
	stderr     string
	transcript string
	skipOutput bool
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd)
	if cmd.Binary == f.failBinary {
		return &process.Result{ExitCode: 1, Stderr: []byte(f.stderr)}, errors.New("exit status 1")
	}
	switch cmd.Binary {
	case "ffmpeg":
		os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte("RIFF"), 0o644)
	case "whisper-cli":
		if f.skipOutput {
			break
		}
		prefix := cmd.Args[slices.Index(cmd.Args, "-of")+1]
		os.WriteFile(prefix+".txt", []byte(f.transcript), 0o644)
		os.WriteFile(prefix+".json", []byte(`{"transcription":[]}`), 0o644)
		os.WriteFile(prefix+".csv", []byte("start,end,text\n"), 0o644)
	}
	return &process.Result{}, nil
}

func newInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "AwAD.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribe_Success(t *testing.T) {
	in := newInput(t)
	runner := &fakeRunner{transcript: " hello world \n"}
	p := NewProvider(transcription.Config{Model: "small", Language: "de", Whisper: transcription.WhisperConfig{ModelDir: "/models"}}, runner, nil)

	res := p.Transcribe(context.Background(), transcription.Request{AudioPath: in})
	if !res.Success || res.Text != "hello world" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(res.Artifacts))
	}
	for _, a := range res.Artifacts {
		if _, err := os.Stat(a.Path); err != nil {
			t.Errorf("artifact %s missing: %v", a.DisplayName, err)
		}
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(runner.calls))
	}
	wav := in + ".OUTPUT.wav"
	ff := strings.Join(runner.calls[0].Args, " ")
	if want := "-y -i " + in + " -ar 16000 -ac 1 -c:a pcm_s16le " + wav; ff != want {
		t.Errorf("ffmpeg args = %q, want %q", ff, want)
	}
	wh := strings.Join(runner.calls[1].Args, " ")
	if want := "-m /models/ggml-small.bin -l de -t 4 -p 1 -oj -otxt -ocsv -of " + wav + " -f " + wav; wh != want {
		t.Errorf("whisper args = %q, want %q", wh, want)
	}
}

func TestTranscribe_RequestOverridesDefaults(t *testing.T) {
	runner := &fakeRunner{transcript: "x"}
	p := NewProvider(transcription.Config{}, runner, nil)
	p.Transcribe(context.Background(), transcription.Request{AudioPath: newInput(t), Model: "tiny", Language: "en"})

	args := runner.calls[1].Args
	if args[1] != filepath.Join("models", "ggml-tiny.bin") || args[3] != "en" {
		t.Errorf("request model/language not applied: %v", args)
	}
}

func TestTranscribe_FailuresCarryStderr(t *testing.T) {
	tests := []struct {
		name       string
		failBinary string
		stderr     string
		wantReason string
		wantCalls  int
	}{
		{"ffmpeg", "ffmpeg", "line1\nInvalid data found when processing input\n", "ffmpeg: line1\nInvalid data found when processing input", 1},
		{"whisper", "whisper-cli", "error: failed to open model\n", "whisper: error: failed to open model", 2},
		{"no stderr", "whisper-cli", "", "whisper: exit status 1", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{failBinary: tt.failBinary, stderr: tt.stderr}
			p := NewProvider(transcription.Config{}, runner, nil)
			res := p.Transcribe(context.Background(), transcription.Request{AudioPath: newInput(t)})
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", res.Reason, tt.wantReason)
			}
			if len(runner.calls) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(runner.calls), tt.wantCalls)
			}
		})
	}
}

func TestTranscribe_MissingOutput(t *testing.T) {
	p := NewProvider(transcription.Config{}, &fakeRunner{skipOutput: true}, nil)
	res := p.Transcribe(context.Background(), transcription.Request{AudioPath: newInput(t)})
	if res.Success || !strings.Contains(res.Reason, "no transcript") {
		t.Errorf("unexpected result: %+v", res)
	}
}

// TestTranscribe_ShellTools runs the real process runner against shell
// stand-ins for ffmpeg and whisper-cli.
func TestTranscribe_ShellTools(t *testing.T) {
	bin := t.TempDir()
	ffmpeg := filepath.Join(bin, "ffmpeg")
	whisper := filepath.Join(bin, "whisper-cli")
	writeScript(t, ffmpeg, `for last; do :; done; printf RIFF > "$last"`)
	writeScript(t, whisper, `
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then out="$2"; fi
  shift
done
printf 'from the shell\n' > "$out.txt"
printf '{}' > "$out.json"
printf 'a,b\n' > "$out.csv"`)

	cfg := transcription.Config{Whisper: transcription.WhisperConfig{Binary: whisper, FFmpeg: ffmpeg}}
	p := NewProvider(cfg, process.NewExec(nil), nil)
	in := newInput(t)
	res := p.Transcribe(context.Background(), transcription.Request{AudioPath: in})
	if !res.Success || res.Text != "from the shell" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(in + ".OUTPUT.wav"); err != nil {
		t.Errorf("resampled file missing: %v", err)
	}

	writeScript(t, whisper, `echo "whisper_init: failed to load model" >&2; exit 3`)
	res = p.Transcribe(context.Background(), transcription.Request{AudioPath: in})
	if res.Success || res.Reason != "whisper: whisper_init: failed to load model" {
		t.Errorf("unexpected failure result: %+v", res)
	}
}

func TestIsAvailable(t *testing.T) {
	bin := t.TempDir()
	models := t.TempDir()
	ffmpeg := filepath.Join(bin, "ffmpeg")
	whisper := filepath.Join(bin, "whisper-cli")
	writeScript(t, ffmpeg, "exit 0")
	writeScript(t, whisper, "exit 0")

	cfg := transcription.Config{Whisper: transcription.WhisperConfig{Binary: whisper, FFmpeg: ffmpeg, ModelDir: models}}
	p := NewProvider(cfg, nil, nil)
	if p.IsAvailable(context.Background()) {
		t.Error("should be unavailable without the model file")
	}
	os.WriteFile(filepath.Join(models, "ggml-base.bin"), []byte("x"), 0o644)
	if !p.IsAvailable(context.Background()) {
		t.Error("should be available with binaries and model")
	}
}

func TestRegister(t *testing.T) {
	reg := transcription.NewRegistry()
	Register(reg, &fakeRunner{}, nil)
	p, err := transcription.New(reg, transcription.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != ProviderName {
		t.Errorf("Name = %q", p.Name())
	}
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}
