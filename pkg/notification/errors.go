package notification

import "errors"

var (
	// ErrUserIDRequired is returned when a request has no target user.
	ErrUserIDRequired = errors.New("user id is required")

	// ErrRecipientRequired is returned when a request has no recipient address or token.
	ErrRecipientRequired = errors.New("recipient is required")

	// ErrInvalidKind is returned when the notification kind is outside the closed enumeration.
	ErrInvalidKind = errors.New("invalid notification kind")

	// ErrInvalidChannel is returned when the channel is not a supported delivery medium.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidPriority is returned when the priority is not a known level.
	ErrInvalidPriority = errors.New("invalid priority")
)
