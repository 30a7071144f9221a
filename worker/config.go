package worker

import (
	"fmt"
	"time"
)

// DefaultInterval is the pause between passes.
const DefaultInterval = 10 * time.Second

// Config configures the job worker.
type Config struct {
	// Interval is the wait after every pass, empty or not.
	Interval time.Duration `mapstructure:"interval"`

	// Model and Language are passed to the engine on every job. They are
	// copied from the transcription settings at wiring time.
	Model    string `mapstructure:"-"`
	Language string `mapstructure:"-"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("worker: interval must be positive, got %s", c.Interval)
	}
	return nil
}
