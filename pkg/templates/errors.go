package templates

import "errors"

var (
	// ErrTemplateNotFound is returned when no active template exists for
	// (key, channel). The engine fails closed on this error: no template,
	// no send.
	ErrTemplateNotFound = errors.New("no active template for key and channel")

	// ErrKeyRequired is returned when a template is saved without a key.
	ErrKeyRequired = errors.New("template key is required")

	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("storage cannot be nil")
)
