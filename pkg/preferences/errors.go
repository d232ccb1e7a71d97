package preferences

import "errors"

var (
	// ErrPreferenceNotFound is returned when no row exists for (user, kind, channel).
	ErrPreferenceNotFound = errors.New("preference not found")

	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrInvalidFrequency is returned when a preference carries an unknown frequency.
	ErrInvalidFrequency = errors.New("invalid frequency")
)
