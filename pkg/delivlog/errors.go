package delivlog

import "errors"

var (
	// ErrEntryNotFound is returned when the delivery log entry does not exist.
	ErrEntryNotFound = errors.New("delivery log entry not found")

	// ErrInvalidEvent is returned for an unknown lifecycle event.
	ErrInvalidEvent = errors.New("invalid delivery lifecycle event")

	// ErrInvalidStatus is returned for an unknown entry status.
	ErrInvalidStatus = errors.New("invalid delivery log status")

	// ErrUserIDRequired is returned when an entry has no target user.
	ErrUserIDRequired = errors.New("delivery log user id is required")

	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("delivery log storage cannot be nil")
)
