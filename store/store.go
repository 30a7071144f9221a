package store

import (
	"context"
	"embed"
)

// Migrations holds the versioned schema for golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the SQL files.
const MigrationsDir = "migrations"

// Store is the persistence contract shared by the bot, the worker, the cache
// and the admin server. Lookups of absent rows return a NotFound AppError.
type Store interface {
	// UpsertAccount inserts the account or overwrites its mutable fields.
	UpsertAccount(ctx context.Context, account *Account) error
	// DeleteAccount removes the account. Deleting an absent id is not an error.
	DeleteAccount(ctx context.Context, id int64) error
	// GetAccount returns one account.
	GetAccount(ctx context.Context, id int64) (*Account, error)
	// ListAccounts returns accounts ordered by id.
	ListAccounts(ctx context.Context, offset, limit int) ([]Account, error)
	// CountAccounts returns the number of known accounts.
	CountAccounts(ctx context.Context) (int64, error)

	// EnqueueJob persists job and assigns its ID.
	EnqueueJob(ctx context.Context, job *Job) error
	// PendingJobs returns every job still in the store, by ascending id.
	PendingJobs(ctx context.Context) ([]Job, error)
	// DeleteJob removes a job. Deleting an absent id is not an error.
	DeleteJob(ctx context.Context, id int64) error
	// CountJobs returns the number of pending jobs.
	CountJobs(ctx context.Context) (int64, error)

	// FindResult returns the cached result for a fingerprint.
	FindResult(ctx context.Context, fingerprint string) (*CachedResult, error)
	// SaveResult inserts result. An existing fingerprint is left untouched.
	SaveResult(ctx context.Context, result *CachedResult) error
}
