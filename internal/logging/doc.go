// Package logging builds slog loggers with murmur's console and JSON
// handlers, standardized field keys, and helpers for deriving logger fields
// from request context.
package logging
