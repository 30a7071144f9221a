package transcription

import (
	"context"
	"fmt"

	"github.com/kbukum/transcribot/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider

	// Transcribe converts the audio at req.AudioPath. Engine failures are
	// reported in the Result, never as a panic or error value.
	Transcribe(ctx context.Context, req Request) Result
}

// Registry holds the backend factories selectable by Config.Provider.
type Registry = provider.Registry[Provider, Config]

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return provider.NewRegistry[Provider, Config]()
}

// New creates the backend named by cfg.Provider.
func New(reg *Registry, cfg Config) (Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := reg.Create(cfg.Provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	return p, nil
}
