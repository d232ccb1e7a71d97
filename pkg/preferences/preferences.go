package preferences

import (
	"time"

	"github.com/subtrackhq/notify/pkg/notification"
)

// Frequency represents how often a user wants a given notification.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyNever     Frequency = "never"
)

// Valid checks if the frequency is one of the known values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly, FrequencyNever:
		return true
	}
	return false
}

// Preference is the fine-grained per (user, kind, channel) delivery setting.
// Absence of a row means the user never configured this combination, which
// resolves to allowed — default-deny would silently drop notifications for
// every user who never opened the settings page.
type Preference struct {
	UserID  string               `json:"user_id"`
	Kind    notification.Kind    `json:"notification_type"`
	Channel notification.Channel `json:"channel_type"`
	Enabled bool                 `json:"enabled"`

	Frequency Frequency `json:"frequency"`

	// Quiet hours are a daily time-of-day window in "HH:MM" form, empty when
	// unset. The window is inclusive on both ends and may wrap midnight.
	QuietHoursStart string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string `json:"quiet_hours_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasQuietHours reports whether a quiet-hours window is configured.
func (p Preference) HasQuietHours() bool {
	return p.QuietHoursStart != "" && p.QuietHoursEnd != ""
}

// InQuietHours reports whether the given time-of-day falls inside the
// configured window. Comparison is on zero-padded "HH:MM" strings; a start
// later than the end means the window spans midnight.
func (p Preference) InQuietHours(t time.Time) bool {
	if !p.HasQuietHours() {
		return false
	}
	tod := t.Format("15:04")
	if p.QuietHoursStart <= p.QuietHoursEnd {
		return tod >= p.QuietHoursStart && tod <= p.QuietHoursEnd
	}
	// Window wraps midnight, e.g. 22:00-08:00.
	return tod >= p.QuietHoursStart || tod <= p.QuietHoursEnd
}

// Settings is the coarse per-user blob the product settings page writes.
// It is evaluated before, and independently of, the row-level preferences.
//
// A nil entry in Channels or Kinds means "not configured", which is enabled.
type Settings struct {
	Enabled  bool                          `json:"enabled"`
	Channels map[notification.Channel]bool `json:"channels,omitempty"`
	Kinds    map[notification.Kind]bool    `json:"kinds,omitempty"`
}

// ChannelEnabled reports whether the channel class is enabled by the blob.
func (s Settings) ChannelEnabled(ch notification.Channel) bool {
	if s.Channels == nil {
		return true
	}
	enabled, ok := s.Channels[ch]
	return !ok || enabled
}

// KindEnabled reports whether the specific kind is enabled by the blob.
func (s Settings) KindEnabled(kind notification.Kind) bool {
	if s.Kinds == nil {
		return true
	}
	enabled, ok := s.Kinds[kind]
	return !ok || enabled
}
