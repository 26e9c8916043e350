package domain

import "errors"

// Sentinel errors for the domain layer. Stores and the relay wrap these so
// callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrGroupDeleted      = errors.New("group has been deleted")
	ErrForbidden         = errors.New("operation not permitted for this principal")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownSender     = errors.New("sender could not be resolved to a user")
	ErrUserAlreadyExists = errors.New("user with this name already exists")
)
