package queue

import "errors"

var (
	// ErrItemNotFound is returned when the queue item does not exist.
	ErrItemNotFound = errors.New("queue item not found")

	// ErrInvalidTransition is returned for a status change the legality
	// table does not allow, including cancelling a claimed or terminal item.
	ErrInvalidTransition = errors.New("invalid queue status transition")

	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("queue storage cannot be nil")

	// ErrProcessorNil is returned when a worker is created without a processor.
	ErrProcessorNil = errors.New("queue processor cannot be nil")

	// ErrUserIDRequired is returned when an item has no target user.
	ErrUserIDRequired = errors.New("queue item user id is required")

	// ErrRecipientRequired is returned when an item has no recipient.
	ErrRecipientRequired = errors.New("queue item recipient is required")

	// ErrInvalidKind is returned for an unknown notification type.
	ErrInvalidKind = errors.New("queue item notification type is invalid")

	// ErrInvalidChannel is returned for an unknown channel type.
	ErrInvalidChannel = errors.New("queue item channel type is invalid")

	// ErrScheduledAtRequired is returned when an item has no due time.
	ErrScheduledAtRequired = errors.New("queue item scheduled time is required")
)
