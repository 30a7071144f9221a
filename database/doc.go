// Package database wraps a GORM connection to the service's SQLite file.
//
// Open connects with retry, applies pool limits and SQLite pragmas, and
// returns a DB. Component adapts DB to the component lifecycle and brings the
// schema up to date on Start, either from embedded SQL migrations (see the
// migration subpackage) or with GORM auto-migration when auto_migrate is set.
//
// FromDatabase translates GORM and SQLite errors into AppErrors so callers can
// classify them with errors.As.
package database
