package engine

import "errors"

var (
	// ErrResolverNil is returned when no preference resolver is provided.
	ErrResolverNil = errors.New("preference resolver cannot be nil")

	// ErrRendererNil is returned when no template renderer is provided.
	ErrRendererNil = errors.New("template renderer cannot be nil")

	// ErrRegistryNil is returned when no sender registry is provided.
	ErrRegistryNil = errors.New("sender registry cannot be nil")

	// ErrQueueNil is returned when no queue storage is provided.
	ErrQueueNil = errors.New("queue storage cannot be nil")

	// ErrRecorderNil is returned when no delivery recorder is provided.
	ErrRecorderNil = errors.New("delivery recorder cannot be nil")
)
