// Package whisper runs whisper.cpp as a local subprocess.
package whisper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/process"
	"github.com/kbukum/transcribot/transcription"
)

const (
	// ProviderName is the registered name for the whisper.cpp CLI provider.
	ProviderName = "whisper"

	sampleRate = "16000"
	stderrTail = 5
)

// Provider implements transcription.Provider with ffmpeg and whisper-cli.
type Provider struct {
	cfg      transcription.WhisperConfig
	model    string
	language string
	runner   process.Runner
	log      *logger.Logger
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a CLI provider. Model and language from cfg are the
// defaults for requests that leave them empty.
func NewProvider(cfg transcription.Config, runner process.Runner, log *logger.Logger) *Provider {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if runner == nil {
		runner = process.NewExec(log)
	}
	return &Provider{
		cfg:      cfg.Whisper,
		model:    cfg.Model,
		language: cfg.Language,
		runner:   runner,
		log:      log.WithComponent("whisper"),
	}
}

// Factory returns a registry factory bound to runner and log.
func Factory(runner process.Runner, log *logger.Logger) func(transcription.Config) (transcription.Provider, error) {
	return func(cfg transcription.Config) (transcription.Provider, error) {
		return NewProvider(cfg, runner, log), nil
	}
}

// Register adds the CLI provider to reg.
func Register(reg *transcription.Registry, runner process.Runner, log *logger.Logger) {
	reg.RegisterFactory(ProviderName, Factory(runner, log))
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// ModelPath returns <model_dir>/ggml-<model>.bin.
func (p *Provider) ModelPath(model string) string {
	return filepath.Join(p.cfg.ModelDir, "ggml-"+model+".bin")
}

// IsAvailable reports whether both binaries and the default model are present.
func (p *Provider) IsAvailable(_ context.Context) bool {
	if process.LookPath(p.cfg.FFmpeg) != nil || process.LookPath(p.cfg.Binary) != nil {
		return false
	}
	_, err := os.Stat(p.ModelPath(p.model))
	return err == nil
}

// Transcribe resamples the input to 16 kHz mono PCM, runs whisper-cli with
// json, txt and csv outputs and returns the trimmed txt output.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) transcription.Result {
	model := req.Model
	if model == "" {
		model = p.model
	}
	lang := req.Language
	if lang == "" {
		lang = p.language
	}
	wav := transcription.ResampledPath(req.AudioPath)

	if res, err := p.runner.Run(ctx, p.resampleCommand(req.AudioPath, wav)); err != nil {
		return p.failure("ffmpeg", res, err)
	}
	if res, err := p.runner.Run(ctx, p.transcribeCommand(wav, model, lang)); err != nil {
		return p.failure("whisper", res, err)
	}

	text, err := os.ReadFile(transcription.TextPath(req.AudioPath))
	if err != nil {
		p.log.Warn("Transcript output missing", logger.Fields(logger.FieldPath, req.AudioPath, logger.FieldError, err.Error()))
		return transcription.Failed(fmt.Sprintf("whisper produced no transcript: %v", err))
	}
	return transcription.Succeeded(req.AudioPath, string(text))
}

func (p *Provider) resampleCommand(in, out string) process.Command {
	return process.Command{
		Binary: p.cfg.FFmpeg,
		Args:   []string{"-y", "-i", in, "-ar", sampleRate, "-ac", "1", "-c:a", "pcm_s16le", out},
	}
}

func (p *Provider) transcribeCommand(wav, model, lang string) process.Command {
	return process.Command{
		Binary: p.cfg.Binary,
		Args: []string{
			"-m", p.ModelPath(model),
			"-l", lang,
			"-t", strconv.Itoa(p.cfg.Threads),
			"-p", strconv.Itoa(p.cfg.Processors),
			"-oj", "-otxt", "-ocsv",
			"-of", wav,
			"-f", wav,
		},
	}
}

// failure prefers the tool's own stderr over the Go error text.
func (p *Provider) failure(stage string, res *process.Result, err error) transcription.Result {
	reason := res.StderrTail(stderrTail)
	if reason == "" {
		reason = err.Error()
	}
	p.log.Warn("Transcription step failed", logger.Fields("stage", stage, logger.FieldError, err.Error()))
	return transcription.Failed(strings.TrimSpace(stage + ": " + reason))
}
