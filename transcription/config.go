package transcription

import (
	"fmt"
	"time"
)

const (
	DefaultProvider = "whisper"
	DefaultModel    = "base"
	DefaultLanguage = "auto"
)

// Config selects and configures the transcription backend.
type Config struct {
	Provider string        `mapstructure:"provider" validate:"required"`
	Model    string        `mapstructure:"model" validate:"required"`
	Language string        `mapstructure:"language" validate:"required"`
	Whisper  WhisperConfig `mapstructure:"whisper"`
	Sidecar  SidecarConfig `mapstructure:"sidecar"`
}

// WhisperConfig configures the whisper.cpp CLI backend.
type WhisperConfig struct {
	Binary     string `mapstructure:"binary"`
	FFmpeg     string `mapstructure:"ffmpeg"`
	ModelDir   string `mapstructure:"model_dir"`
	Threads    int    `mapstructure:"threads" validate:"gte=1"`
	Processors int    `mapstructure:"processors" validate:"gte=1"`
}

// SidecarConfig configures the HTTP backend. Timeout is opt-in: zero leaves
// a transcription unbounded, like the whisper backend.
type SidecarConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	w := &c.Whisper
	if w.Binary == "" {
		w.Binary = "whisper-cli"
	}
	if w.FFmpeg == "" {
		w.FFmpeg = "ffmpeg"
	}
	if w.ModelDir == "" {
		w.ModelDir = "models"
	}
	if w.Threads == 0 {
		w.Threads = 4
	}
	if w.Processors == 0 {
		w.Processors = 1
	}
	if c.Sidecar.URL == "" {
		c.Sidecar.URL = "http://localhost:9000"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Whisper.Threads < 1 || c.Whisper.Processors < 1 {
		return fmt.Errorf("transcription: whisper threads and processors must be positive")
	}
	if c.Provider == "" || c.Model == "" {
		return fmt.Errorf("transcription: provider and model are required")
	}
	return nil
}
