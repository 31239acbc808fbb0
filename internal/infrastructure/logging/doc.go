// Package logging provides structured logging for the bridge.
//
// It wraps log/slog with configurable level, format (json/text) and output
// destination, plus default service and version attributes on every record.
package logging
