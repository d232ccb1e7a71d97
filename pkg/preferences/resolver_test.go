package preferences_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/preferences"
)

type stubSettingsReader struct {
	settings *preferences.Settings
	err      error
	calls    int
}

func (s *stubSettingsReader) Settings(ctx context.Context, userID string) (*preferences.Settings, error) {
	s.calls++
	return s.settings, s.err
}

type failingStorage struct{}

func (failingStorage) Get(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) (*preferences.Preference, error) {
	return nil, errors.New("connection refused")
}

func (failingStorage) Upsert(ctx context.Context, pref preferences.Preference) error {
	return errors.New("connection refused")
}

func (failingStorage) Delete(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) error {
	return errors.New("connection refused")
}

func (failingStorage) ListByUser(ctx context.Context, userID string) ([]preferences.Preference, error) {
	return nil, errors.New("connection refused")
}

func TestNewResolver_NilStorage(t *testing.T) {
	t.Parallel()

	_, err := preferences.NewResolver(nil)
	assert.ErrorIs(t, err, preferences.ErrStorageNil)
}

func TestResolver_Allowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no row defaults to allow", func(t *testing.T) {
		t.Parallel()

		resolver, err := preferences.NewResolver(preferences.NewMemoryStorage())
		require.NoError(t, err)

		d := resolver.Allowed(ctx, "u1", notification.KindPaymentFailed, notification.ChannelEmail)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	})

	t.Run("disabled row denies", func(t *testing.T) {
		t.Parallel()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage)
		require.NoError(t, err)

		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:  "u1",
			Kind:    notification.KindPaymentFailed,
			Channel: notification.ChannelEmail,
			Enabled: false,
		}))

		d := resolver.Allowed(ctx, "u1", notification.KindPaymentFailed, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonPreferenceDisabled, d.Reason)
	})

	t.Run("frequency never denies", func(t *testing.T) {
		t.Parallel()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage)
		require.NoError(t, err)

		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:    "u1",
			Kind:      notification.KindQuotaWarning,
			Channel:   notification.ChannelPush,
			Enabled:   true,
			Frequency: preferences.FrequencyNever,
		}))

		d := resolver.Allowed(ctx, "u1", notification.KindQuotaWarning, notification.ChannelPush)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonFrequencyNever, d.Reason)
	})

	t.Run("other combinations are not affected", func(t *testing.T) {
		t.Parallel()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage)
		require.NoError(t, err)

		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:  "u1",
			Kind:    notification.KindPaymentFailed,
			Channel: notification.ChannelEmail,
			Enabled: false,
		}))

		// Same kind, different channel still allowed.
		d := resolver.Allowed(ctx, "u1", notification.KindPaymentFailed, notification.ChannelInApp)
		assert.True(t, d.Allowed)

		// Different user still allowed.
		d = resolver.Allowed(ctx, "u2", notification.KindPaymentFailed, notification.ChannelEmail)
		assert.True(t, d.Allowed)
	})

	t.Run("storage failure fails open", func(t *testing.T) {
		t.Parallel()

		resolver, err := preferences.NewResolver(failingStorage{})
		require.NoError(t, err)

		d := resolver.Allowed(ctx, "u1", notification.KindSecurityAlert, notification.ChannelEmail)
		assert.True(t, d.Allowed)
	})
}

func TestResolver_QuietHours(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	setup := func(t *testing.T, start, end string, now time.Time) *preferences.Resolver {
		t.Helper()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage,
			preferences.WithClock(func() time.Time { return now }),
		)
		require.NoError(t, err)

		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:          "u1",
			Kind:            notification.KindSubscriptionExpiry,
			Channel:         notification.ChannelEmail,
			Enabled:         true,
			Frequency:       preferences.FrequencyImmediate,
			QuietHoursStart: start,
			QuietHoursEnd:   end,
		}))
		return resolver
	}

	at := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
	}

	t.Run("inside simple window denies", func(t *testing.T) {
		t.Parallel()
		resolver := setup(t, "09:00", "17:00", at(12, 30))
		d := resolver.Allowed(ctx, "u1", notification.KindSubscriptionExpiry, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonQuietHours, d.Reason)
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		t.Parallel()

		for _, now := range []time.Time{at(9, 0), at(17, 0)} {
			resolver := setup(t, "09:00", "17:00", now)
			d := resolver.Allowed(ctx, "u1", notification.KindSubscriptionExpiry, notification.ChannelEmail)
			assert.False(t, d.Allowed, "time %s should be inside the window", now.Format("15:04"))
		}
	})

	t.Run("outside window allows", func(t *testing.T) {
		t.Parallel()
		resolver := setup(t, "09:00", "17:00", at(8, 59))
		d := resolver.Allowed(ctx, "u1", notification.KindSubscriptionExpiry, notification.ChannelEmail)
		assert.True(t, d.Allowed)
	})

	t.Run("window wrapping midnight", func(t *testing.T) {
		t.Parallel()

		// 22:00-08:00: late evening and early morning are quiet, midday is not.
		for _, tc := range []struct {
			now     time.Time
			blocked bool
		}{
			{at(23, 0), true},
			{at(3, 0), true},
			{at(8, 0), true},
			{at(12, 0), false},
			{at(21, 59), false},
		} {
			resolver := setup(t, "22:00", "08:00", tc.now)
			d := resolver.Allowed(ctx, "u1", notification.KindSubscriptionExpiry, notification.ChannelEmail)
			assert.Equal(t, !tc.blocked, d.Allowed, "time %s", tc.now.Format("15:04"))
		}
	})
}

func TestResolver_SettingsGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newResolver := func(t *testing.T, reader preferences.SettingsReader) *preferences.Resolver {
		t.Helper()
		resolver, err := preferences.NewResolver(preferences.NewMemoryStorage(),
			preferences.WithSettingsReader(reader),
		)
		require.NoError(t, err)
		return resolver
	}

	t.Run("master switch denies everything", func(t *testing.T) {
		t.Parallel()

		resolver := newResolver(t, &stubSettingsReader{settings: &preferences.Settings{Enabled: false}})
		d := resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonSettingsDisabled, d.Reason)
	})

	t.Run("channel class disable", func(t *testing.T) {
		t.Parallel()

		resolver := newResolver(t, &stubSettingsReader{settings: &preferences.Settings{
			Enabled:  true,
			Channels: map[notification.Channel]bool{notification.ChannelEmail: false},
		}})

		d := resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonSettingsChannelDisabled, d.Reason)

		// Other channels unaffected.
		d = resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelInApp)
		assert.True(t, d.Allowed)
	})

	t.Run("specific kind disable", func(t *testing.T) {
		t.Parallel()

		resolver := newResolver(t, &stubSettingsReader{settings: &preferences.Settings{
			Enabled: true,
			Kinds:   map[notification.Kind]bool{notification.KindSystemUpdate: false},
		}})

		d := resolver.Allowed(ctx, "u1", notification.KindSystemUpdate, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonSettingsKindDisabled, d.Reason)
	})

	t.Run("settings error fails open", func(t *testing.T) {
		t.Parallel()

		resolver := newResolver(t, &stubSettingsReader{err: errors.New("timeout")})
		d := resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail)
		assert.True(t, d.Allowed)
	})

	t.Run("nil settings blob allows", func(t *testing.T) {
		t.Parallel()

		resolver := newResolver(t, &stubSettingsReader{})
		d := resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail)
		assert.True(t, d.Allowed)
	})

	t.Run("settings gate runs before row lookup", func(t *testing.T) {
		t.Parallel()

		// Row storage always errors; the settings denial must win regardless.
		resolver, err := preferences.NewResolver(failingStorage{},
			preferences.WithSettingsReader(&stubSettingsReader{settings: &preferences.Settings{Enabled: false}}),
		)
		require.NoError(t, err)

		d := resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail)
		assert.False(t, d.Allowed)
		assert.Equal(t, preferences.ReasonSettingsDisabled, d.Reason)
	})
}

func TestResolver_RowCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save invalidates cached row", func(t *testing.T) {
		t.Parallel()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage,
			preferences.WithRowCache(128, time.Hour),
		)
		require.NoError(t, err)

		// Prime the cache with the default-allow absence.
		d := resolver.Allowed(ctx, "u1", notification.KindPaymentFailed, notification.ChannelEmail)
		require.True(t, d.Allowed)

		// Mutation through the resolver must be visible immediately.
		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:  "u1",
			Kind:    notification.KindPaymentFailed,
			Channel: notification.ChannelEmail,
			Enabled: false,
		}))

		d = resolver.Allowed(ctx, "u1", notification.KindPaymentFailed, notification.ChannelEmail)
		assert.False(t, d.Allowed)
	})

	t.Run("remove restores default allow", func(t *testing.T) {
		t.Parallel()

		storage := preferences.NewMemoryStorage()
		resolver, err := preferences.NewResolver(storage,
			preferences.WithRowCache(128, time.Hour),
		)
		require.NoError(t, err)

		require.NoError(t, resolver.Save(ctx, preferences.Preference{
			UserID:  "u1",
			Kind:    notification.KindWelcome,
			Channel: notification.ChannelEmail,
			Enabled: false,
		}))
		require.False(t, resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail).Allowed)

		require.NoError(t, resolver.Remove(ctx, "u1", notification.KindWelcome, notification.ChannelEmail))
		assert.True(t, resolver.Allowed(ctx, "u1", notification.KindWelcome, notification.ChannelEmail).Allowed)
	})
}

func TestResolver_SaveValidation(t *testing.T) {
	t.Parallel()

	resolver, err := preferences.NewResolver(preferences.NewMemoryStorage())
	require.NoError(t, err)

	err = resolver.Save(context.Background(), preferences.Preference{
		UserID:    "u1",
		Kind:      notification.KindWelcome,
		Channel:   notification.ChannelEmail,
		Enabled:   true,
		Frequency: "hourly",
	})
	assert.ErrorIs(t, err, preferences.ErrInvalidFrequency)
}
