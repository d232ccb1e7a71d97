// Package preferences decides whether a notification is currently allowed
// for a user on a given channel.
//
// Two independent layers both have to pass: the coarse per-user settings
// blob (master switch, per-channel-class and per-kind toggles, owned by the
// product settings system and consumed through SettingsReader) and the
// fine-grained Preference row keyed by (user, kind, channel) with an enabled
// flag, a frequency, and an optional daily quiet-hours window.
//
// Two policy choices are deliberate and load-bearing:
//
//   - An absent preference row means allowed. Users who never configured
//     anything still get their notifications.
//   - Lookup errors resolve to allowed (fail-open). A flaky read must not
//     silently drop a payment-failed or security alert; the error is logged
//     instead.
package preferences
