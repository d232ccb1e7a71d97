package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/subtrackhq/notify/pkg/cache"
	"github.com/subtrackhq/notify/pkg/logger"
	"github.com/subtrackhq/notify/pkg/notification"
)

// Block reasons reported to callers. A blocked send is a policy outcome,
// not an engine failure.
const (
	ReasonSettingsDisabled        = "notifications disabled in user settings"
	ReasonSettingsChannelDisabled = "channel disabled in user settings"
	ReasonSettingsKindDisabled    = "notification kind disabled in user settings"
	ReasonPreferenceDisabled      = "notification preference disabled"
	ReasonFrequencyNever          = "notification frequency set to never"
	ReasonQuietHours              = "quiet hours"
)

// Decision is the outcome of a preference resolution.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

type prefKey struct {
	userID  string
	kind    notification.Kind
	channel notification.Channel
}

// cachedRow wraps a lookup result so a known-absent row is cacheable too.
type cachedRow struct {
	pref *Preference
}

// Resolver decides whether a notification is currently allowed for a user.
//
// Lookup failures resolve to allowed. Failing open is a deliberate policy:
// a transient read failure must not silently swallow a payment or security
// notification. The error is logged so the failure is still visible.
type Resolver struct {
	storage  Storage
	settings SettingsReader
	rows     *cache.TTLCache[prefKey, cachedRow]
	log      *slog.Logger
	now      func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSettingsReader wires the coarse per-user settings collaborator.
// Without it the settings gate is skipped entirely.
func WithSettingsReader(r SettingsReader) ResolverOption {
	return func(res *Resolver) { res.settings = r }
}

// WithResolverLogger sets the logger for lookup failures.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(res *Resolver) {
		if log != nil {
			res.log = log
		}
	}
}

// WithRowCache enables read-through caching of preference rows. The TTL only
// bounds staleness across processes; mutations through this package
// invalidate the affected key immediately.
func WithRowCache(capacity int, ttl time.Duration) ResolverOption {
	return func(res *Resolver) {
		res.rows = cache.NewTTL[prefKey, cachedRow](capacity, ttl)
	}
}

// WithClock overrides the time source used for quiet-hours evaluation.
func WithClock(now func() time.Time) ResolverOption {
	return func(res *Resolver) {
		if now != nil {
			res.now = now
		}
	}
}

// NewResolver creates a preference resolver over the given storage.
func NewResolver(storage Storage, opts ...ResolverOption) (*Resolver, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	r := &Resolver{
		storage: storage,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Allowed runs the full gate for (user, kind, channel): coarse settings blob
// first, then the fine-grained row. Both must pass.
func (r *Resolver) Allowed(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) Decision {
	if d := r.settingsGate(ctx, userID, kind, channel); !d.Allowed {
		return d
	}

	pref, err := r.lookupRow(ctx, userID, kind, channel)
	if err != nil {
		// Fail open on read errors, see type comment.
		r.log.LogAttrs(ctx, slog.LevelWarn, "preference lookup failed, allowing delivery",
			logger.UserID(userID),
			logger.Kind(kind),
			logger.Channel(channel),
			logger.Error(err),
		)
		return allow()
	}
	if pref == nil {
		// Never configured: default-allow.
		return allow()
	}

	if !pref.Enabled {
		return deny(ReasonPreferenceDisabled)
	}
	if pref.Frequency == FrequencyNever {
		return deny(ReasonFrequencyNever)
	}
	if pref.InQuietHours(r.now()) {
		return deny(ReasonQuietHours)
	}

	return allow()
}

// settingsGate evaluates the coarse settings blob. It is independent of the
// row-level preferences and always runs first.
func (r *Resolver) settingsGate(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) Decision {
	if r.settings == nil {
		return allow()
	}

	settings, err := r.settings.Settings(ctx, userID)
	if err != nil {
		r.log.LogAttrs(ctx, slog.LevelWarn, "settings lookup failed, allowing delivery",
			logger.UserID(userID),
			logger.Error(err),
		)
		return allow()
	}
	if settings == nil {
		return allow()
	}

	if !settings.Enabled {
		return deny(ReasonSettingsDisabled)
	}
	if !settings.ChannelEnabled(channel) {
		return deny(ReasonSettingsChannelDisabled)
	}
	if !settings.KindEnabled(kind) {
		return deny(ReasonSettingsKindDisabled)
	}
	return allow()
}

// lookupRow fetches the preference row through the cache when one is
// configured. A nil result with nil error means no row exists.
func (r *Resolver) lookupRow(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) (*Preference, error) {
	key := prefKey{userID: userID, kind: kind, channel: channel}

	if r.rows != nil {
		if row, ok := r.rows.Get(key); ok {
			return row.pref, nil
		}
	}

	pref, err := r.storage.Get(ctx, userID, kind, channel)
	if err != nil {
		if errors.Is(err, ErrPreferenceNotFound) {
			if r.rows != nil {
				r.rows.Put(key, cachedRow{})
			}
			return nil, nil
		}
		return nil, err
	}

	if r.rows != nil {
		r.rows.Put(key, cachedRow{pref: pref})
	}
	return pref, nil
}

// Save writes a preference row through storage and invalidates its cache key.
func (r *Resolver) Save(ctx context.Context, pref Preference) error {
	if pref.Frequency != "" && !pref.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, pref.Frequency)
	}
	if pref.Frequency == "" {
		pref.Frequency = FrequencyImmediate
	}

	if err := r.storage.Upsert(ctx, pref); err != nil {
		return err
	}
	r.invalidate(pref.UserID, pref.Kind, pref.Channel)
	return nil
}

// Remove deletes a preference row and invalidates its cache key,
// restoring the default-allow behavior for the combination.
func (r *Resolver) Remove(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) error {
	if err := r.storage.Delete(ctx, userID, kind, channel); err != nil {
		return err
	}
	r.invalidate(userID, kind, channel)
	return nil
}

func (r *Resolver) invalidate(userID string, kind notification.Kind, channel notification.Channel) {
	if r.rows != nil {
		r.rows.Invalidate(prefKey{userID: userID, kind: kind, channel: channel})
	}
}
