package preferences

import (
	"context"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Storage handles persistence of fine-grained preference rows.
type Storage interface {
	// Get retrieves the preference row for (user, kind, channel).
	// Returns ErrPreferenceNotFound if the user never configured it.
	Get(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) (*Preference, error)

	// Upsert creates or replaces a preference row.
	Upsert(ctx context.Context, pref Preference) error

	// Delete removes a preference row, resetting the combination to default-allow.
	Delete(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) error

	// ListByUser returns every configured preference row for the user.
	ListByUser(ctx context.Context, userID string) ([]Preference, error)
}

// SettingsReader supplies the coarse per-user settings blob. It is an
// external collaborator owned by the product's settings system; the engine
// only reads it. A nil result means the user has no settings configured.
type SettingsReader interface {
	Settings(ctx context.Context, userID string) (*Settings, error)
}
