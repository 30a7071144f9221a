package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/transcribot/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	return containsAny(err,
		"connection refused",
		"connection reset",
		"broken pipe",
		"driver: bad connection",
		"sql: database is closed",
		"unable to open database file",
	)
}

// IsBusyError reports SQLite lock contention.
func IsBusyError(err error) bool {
	return containsAny(err,
		"database is locked",
		"database table is locked",
		"sqlite_busy",
	)
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || IsBusyError(err)
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks if the error is a unique or primary key violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || containsAny(err, "unique constraint failed")
}

func containsAny(err error, patterns ...string) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsDuplicateError(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsConnectionError(err):
		e := apperrors.DatabaseError(err)
		e.Message = "Database is temporarily unavailable. Please try again."
		return e
	case IsBusyError(err):
		e := apperrors.DatabaseError(err)
		e.Message = "Database is busy. Please try again."
		return e
	}

	e := apperrors.DatabaseError(err)
	e.Retryable = false
	return e.WithDetail("resource", resource)
}
