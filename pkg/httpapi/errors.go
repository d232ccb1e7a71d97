package httpapi

import "errors"

var (
	// ErrEngineNil is returned when no engine is provided.
	ErrEngineNil = errors.New("notification engine cannot be nil")

	// ErrRecorderNil is returned when no delivery recorder is provided.
	ErrRecorderNil = errors.New("delivery recorder cannot be nil")

	// ErrInboxNil is returned when no inbox storage is provided.
	ErrInboxNil = errors.New("inbox storage cannot be nil")
)
