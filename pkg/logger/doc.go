// Package logger builds configured slog loggers and provides typed attribute
// helpers for the identifiers that recur across the notification engine
// (user, queue item, channel, template key, worker).
//
// Components accept a *slog.Logger via their functional options and fall back
// to slog.Default(), so wiring a logger is always optional.
package logger
