package app

import (
	"errors"

	"github.com/kbukum/transcribot/bot"
	"github.com/kbukum/transcribot/config"
	"github.com/kbukum/transcribot/database"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/redis"
	"github.com/kbukum/transcribot/server"
	"github.com/kbukum/transcribot/storage"
	"github.com/kbukum/transcribot/telegram"
	"github.com/kbukum/transcribot/transcription"
	"github.com/kbukum/transcribot/validation"
	"github.com/kbukum/transcribot/version"
	"github.com/kbukum/transcribot/worker"
)

// ServiceName names the binary, its config file and its log lines.
const ServiceName = "transcribot"

// Config is the full service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Telegram      telegram.Config      `yaml:"telegram" mapstructure:"telegram"`
	Bot           bot.Config           `yaml:"bot" mapstructure:"bot"`
	Worker        worker.Config        `yaml:"worker" mapstructure:"worker"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Telegram.ApplyDefaults()
	c.Bot.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules, and
// reports every problem found.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return errors.Join(
		c.ServiceConfig.Validate(),
		c.Telegram.Validate(),
		c.Bot.Validate(),
		c.Worker.Validate(),
		c.Storage.Validate(),
		c.Database.Validate(),
		c.Redis.Validate(),
		c.Transcription.Validate(),
		c.Server.Validate(),
		c.Observability.Validate(),
	)
}

// Load reads the configuration from the standard locations and the
// environment. WHISPER_MODEL and WHISPER_LANGUAGE are honoured alongside
// the derived names such as TELEGRAM_TOKEN.
func Load(opts ...config.LoaderOption) (*Config, error) {
	opts = append([]config.LoaderOption{
		config.WithEnvAlias("WHISPER_MODEL", "transcription.model"),
		config.WithEnvAlias("WHISPER_LANGUAGE", "transcription.language"),
	}, opts...)

	var cfg Config
	if err := config.LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
