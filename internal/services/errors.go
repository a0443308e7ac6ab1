package services

import "errors"

var (
	// ErrInvalidCredentials is returned when login fails. Deliberately does
	// not distinguish unknown user from wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotProjectOwner is returned when a mutation requires project ownership
	ErrNotProjectOwner = errors.New("only the project owner may do this")

	// ErrProjectAccessDenied is returned when the caller is neither owner
	// nor collaborator of the project
	ErrProjectAccessDenied = errors.New("no access to this project")

	// ErrRepositoryNotFound is returned when the connected GitHub repository
	// no longer exists or access was revoked. Surfaced distinctly from a
	// generic connection failure so the UI can prompt reconnecting a
	// repository instead of retrying.
	ErrRepositoryNotFound = errors.New("github repository not found or access revoked")

	// ErrInvalidSignature is returned when a webhook delivery fails HMAC
	// verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnsupportedEvent is returned for webhook event types the relay
	// does not surface
	ErrUnsupportedEvent = errors.New("unsupported webhook event type")

	// ErrInvalidStreamToken is returned when a stream token fails validation
	ErrInvalidStreamToken = errors.New("invalid or expired stream token")
)
