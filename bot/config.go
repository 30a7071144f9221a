package bot

import (
	"time"

	"github.com/kbukum/transcribot/validation"
)

// Defaults.
const (
	DefaultMaxDuration   = 600
	DefaultUpdateTimeout = 50 * time.Minute
	// UsersPageSize is the number of accounts per /users message.
	UsersPageSize = 10
)

// Config configures update handling.
type Config struct {
	// MaxDuration is the longest accepted media, in seconds. Exactly
	// MaxDuration is accepted.
	MaxDuration int `mapstructure:"max_duration"`
	// UpdateTimeout bounds the handling of a single update.
	UpdateTimeout time.Duration `mapstructure:"update_timeout"`
	// AdminIDs restricts /users when non-empty.
	AdminIDs []int64 `mapstructure:"admin_ids"`
	// Contact is the @handle named in the welcome message. Optional.
	Contact string `mapstructure:"contact"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxDuration == 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.UpdateTimeout == 0 {
		c.UpdateTimeout = DefaultUpdateTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.New().
		Min("bot.max_duration", c.MaxDuration, 1).
		Positive("bot.update_timeout", c.UpdateTimeout).
		Err()
}

func (c *Config) isAdmin(id int64) bool {
	if len(c.AdminIDs) == 0 {
		return true
	}
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
