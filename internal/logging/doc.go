// Package logging builds the slog loggers used across imgpress and provides
// shared attribute helpers and field keys.
package logging
