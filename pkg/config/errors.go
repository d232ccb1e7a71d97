package config

import "errors"

var (
	// ErrNilPointer is returned when Load receives a nil config pointer.
	ErrNilPointer = errors.New("config: nil pointer provided")

	// ErrParsingConfig is returned when environment parsing fails,
	// e.g. a required variable is missing or a value cannot be converted.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
