package templates

import (
	"context"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Storage handles template persistence.
type Storage interface {
	// GetActive retrieves the unique active template for (key, channel).
	// Returns ErrTemplateNotFound when none exists or the row is inactive.
	GetActive(ctx context.Context, key string, channel notification.Channel) (*Template, error)

	// Upsert creates or replaces a template row by key.
	Upsert(ctx context.Context, tpl Template) error

	// SetActive flips the active flag of a template.
	SetActive(ctx context.Context, key string, active bool) error

	// List returns all templates, active or not, for the admin console.
	List(ctx context.Context) ([]Template, error)
}
