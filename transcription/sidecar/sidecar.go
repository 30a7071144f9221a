// Package sidecar transcribes through a whisper-compatible HTTP server
// exposing POST /v1/audio/transcriptions.
package sidecar

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/transcribot/httpclient"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/transcription"
	"github.com/kbukum/transcribot/version"
)

const (
	// ProviderName is the registered name for the HTTP provider.
	ProviderName = "sidecar"

	transcribePath = "/v1/audio/transcriptions"
	healthPath     = "/health"
)

// Provider implements transcription.Provider against an HTTP sidecar.
type Provider struct {
	client   *httpclient.Client
	model    string
	language string
	log      *logger.Logger
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates an HTTP provider. Repeated server errors open a
// circuit breaker so queued jobs fail fast while the sidecar is down.
func NewProvider(cfg transcription.Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.Sidecar.URL,
		Timeout:        clientTimeout(cfg.Sidecar.Timeout),
		Headers:        map[string]string{"User-Agent": version.UserAgent()},
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(ProviderName),
	})
	if err != nil {
		return nil, fmt.Errorf("sidecar: %w", err)
	}
	return &Provider{client: client, model: cfg.Model, language: cfg.Language, log: log.WithComponent("sidecar")}, nil
}

// clientTimeout maps an unset sidecar timeout to no client timeout at all.
func clientTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return -1
	}
	return d
}

// Factory returns a registry factory.
func Factory(log *logger.Logger) func(transcription.Config) (transcription.Provider, error) {
	return func(cfg transcription.Config) (transcription.Provider, error) {
		return NewProvider(cfg, log)
	}
}

// Register adds the HTTP provider to reg.
func Register(reg *transcription.Registry, log *logger.Logger) {
	reg.RegisterFactory(ProviderName, Factory(log))
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks the sidecar health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: healthPath})
	return err == nil && resp.IsSuccess()
}

type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type response struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []segment `json:"segments,omitempty"`
}

// Transcribe uploads the audio and writes the json, txt and csv artifacts
// next to the input, matching the CLI backend's layout.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) transcription.Result {
	model := req.Model
	if model == "" {
		model = p.model
	}
	fields := map[string]string{"model": model, "response_format": "verbose_json"}
	lang := req.Language
	if lang == "" {
		lang = p.language
	}
	if lang != "" && lang != "auto" {
		fields["language"] = lang
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   transcribePath,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName: "file",
				FileName:  filepath.Base(req.AudioPath),
				Path:      req.AudioPath,
			}},
		},
	})
	if err != nil {
		p.log.Warn("Sidecar request failed", logger.ErrorFields("transcribe", err))
		return transcription.Failed("sidecar: " + reason(err, resp))
	}

	var out response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return transcription.Failed(fmt.Sprintf("sidecar: decode response: %v", err))
	}
	if err := writeArtifacts(req.AudioPath, resp.Body, out); err != nil {
		return transcription.Failed(fmt.Sprintf("sidecar: write outputs: %v", err))
	}
	return transcription.Succeeded(req.AudioPath, out.Text)
}

// reason prefers a server-provided error message.
func reason(err error, resp *httpclient.Response) string {
	if resp != nil && len(resp.Body) > 0 {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(resp.Body, &body) == nil {
			if body.Error.Message != "" {
				return body.Error.Message
			}
			if body.Detail != "" {
				return body.Detail
			}
		}
	}
	return err.Error()
}

func writeArtifacts(path string, raw []byte, out response) error {
	if err := os.WriteFile(transcription.JSONPath(path), raw, 0o640); err != nil {
		return err
	}
	if err := os.WriteFile(transcription.TextPath(path), []byte(strings.TrimSpace(out.Text)+"\n"), 0o640); err != nil {
		return err
	}

	f, err := os.Create(transcription.CSVPath(path))
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"start", "end", "text"})
	for _, s := range out.Segments {
		_ = w.Write([]string{
			strconv.FormatInt(int64(s.Start*1000), 10),
			strconv.FormatInt(int64(s.End*1000), 10),
			strings.TrimSpace(s.Text),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
