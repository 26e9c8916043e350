package database

import (
	"errors"
	"fmt"

	"github.com/nfrund/organizapp/internal/domain"
)

// Common database errors that can be checked using errors.Is().
var (
	// ErrNotConnected is returned when no healthy connection is available.
	ErrNotConnected = errors.New("database not connected")

	// ErrInvalidID is returned when a record id cannot be decoded.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrQueryFailed is returned when a query execution fails.
	ErrQueryFailed = errors.New("query execution failed")
)

// DBError represents a database error with additional context.
type DBError struct {
	// The underlying error that was returned by the database driver.
	err error

	// Additional context about where the error occurred.
	context string

	// The query that was being executed when the error occurred.
	query string

	// Optional parameters that were used with the query.
	params map[string]any
}

// NewDBError creates a new DBError with the given error and context.
func NewDBError(err error, context string) *DBError {
	return &DBError{
		err:     err,
		context: context,
	}
}

// WithQuery adds query information to the error.
func (e *DBError) WithQuery(query string) *DBError {
	e.query = query
	return e
}

// WithParams adds query parameters to the error.
func (e *DBError) WithParams(params map[string]any) *DBError {
	e.params = params
	return e
}

// Query returns the statement that failed, if known.
func (e *DBError) Query() string {
	return e.query
}

func (e *DBError) Error() string {
	msg := e.context
	if e.query != "" {
		msg = fmt.Sprintf("%s (query: %s)", msg, e.query)
	}
	if e.err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DBError) Unwrap() error {
	return e.err
}

// Is lets DBError match the package sentinels and the domain sentinels it
// wraps, so stores can return it without losing errors.Is semantics.
func (e *DBError) Is(target error) bool {
	switch target {
	case ErrNotConnected, ErrInvalidID, ErrQueryFailed,
		domain.ErrNotFound, domain.ErrGroupDeleted, domain.ErrUserAlreadyExists:
		return errors.Is(e.err, target)
	}
	return false
}

// WrapError wraps an error with additional context.
// If the error is already a DBError, the new context is prepended.
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.context != "" {
			context = fmt.Sprintf("%s: %s", context, dbErr.context)
		}
		return &DBError{err: dbErr.err, context: context, query: dbErr.query, params: dbErr.params}
	}

	return NewDBError(err, context)
}
