// Package notification defines the shared domain types of the notification
// engine: kinds, channels, priorities, the caller-facing Request, the
// channel-shaped RenderedContent, and the pure batch grouper.
//
// The package has no behavior beyond validation and partitioning; every other
// engine package depends on it and it depends on nothing but the standard
// library. Kinds and channels are closed enumerations — adding a value here is
// a deliberate product decision, not a code formality.
package notification
