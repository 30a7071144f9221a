package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/database/migration"
	"github.com/kbukum/transcribot/logger"
)

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	db            *DB
	cfg           Config
	log           *logger.Logger
	models        []interface{}
	migrations    fs.FS
	migrationsDir string
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg: cfg,
		log: log,
	}
}

// WithAutoMigrate registers models for GORM auto-migration. They are only
// migrated when Config.AutoMigrate is set.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations registers versioned SQL migrations found under dir in fsys.
func (c *Component) WithMigrations(fsys fs.FS, dir string) *Component {
	c.migrations = fsys
	c.migrationsDir = dir
	return c
}

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB {
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database and brings the schema up to date.
func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	switch {
	case c.cfg.AutoMigrate && len(c.models) > 0:
		if err := db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	case c.migrations != nil:
		if err := migration.MigrateUp(db.GormDB, c.migrations, c.migrationsDir, migration.SQLite); err != nil {
			return fmt.Errorf("database migrate: %w", err)
		}
		version, _, err := migration.MigrateVersion(db.GormDB, c.migrations, c.migrationsDir, migration.SQLite)
		if err == nil {
			db.log.Info("Schema up to date", logger.Fields("version", version))
		}
	}
	return nil
}

// Stop gracefully closes the database connection.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health returns the current health status of the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not initialized",
		}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("sqlite %s pool=%d", c.cfg.DSN, c.cfg.MaxOpenConns)
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: details,
	}
}
