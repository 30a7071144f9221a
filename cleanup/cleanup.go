// Package cleanup removes the scratch files a job leaves behind.
package cleanup

import (
	"context"

	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/storage"
	"github.com/kbukum/transcribot/transcription"
)

// Outcome reports how complete a purge was.
type Outcome int

const (
	// OK means every derived path is gone.
	OK Outcome = iota
	// Partial means at least one present path could not be removed.
	Partial
)

func (o Outcome) String() string {
	if o == OK {
		return "ok"
	}
	return "partial"
}

// Manager purges job artifacts from scratch storage.
type Manager struct {
	storage storage.Storage
	log     *logger.Logger
}

// NewManager creates a cleanup manager.
func NewManager(store storage.Storage, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{storage: store, log: log.WithComponent("cleanup")}
}

// Purge removes localPath and every artifact derived from it. Absent files
// are skipped. It is safe to call repeatedly and never fails the caller.
func (m *Manager) Purge(ctx context.Context, localPath string) Outcome {
	outcome := OK
	removed := 0
	for _, p := range transcription.ArtifactPaths(localPath) {
		exists, err := m.storage.Exists(ctx, p)
		if err != nil {
			m.log.Warn("Cannot stat artifact", logger.Fields(logger.FieldPath, p, logger.FieldError, err.Error()))
			outcome = Partial
			continue
		}
		if !exists {
			continue
		}
		if err := m.storage.Delete(ctx, p); err != nil {
			m.log.Warn("Cannot remove artifact", logger.Fields(logger.FieldPath, p, logger.FieldError, err.Error()))
			outcome = Partial
			continue
		}
		removed++
	}
	m.log.Debug("Purged job files", logger.Fields(logger.FieldPath, localPath, "removed", removed, logger.FieldStatus, outcome.String()))
	return outcome
}
