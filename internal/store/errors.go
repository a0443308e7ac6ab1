package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrUsernameConflict is returned when a username or email already exists
	ErrUsernameConflict = errors.New("username or email already exists")

	// ErrDuplicateEvent is returned by AppendActivity when the github event ID
	// was already recorded for the project (redelivered webhook). Callers
	// treat this as a successful no-op.
	ErrDuplicateEvent = errors.New("duplicate github event for project")

	// ErrRepositoryConflict is returned when a project already has a
	// connected repository
	ErrRepositoryConflict = errors.New("project already has a connected repository")
)
