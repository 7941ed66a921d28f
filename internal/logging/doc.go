// Package logging provides structured logging utilities for calsweep.
//
// Diagnostics go to stderr through log/slog with consistent attribute names.
// The per-event status lines the user reads are not log records; they are
// written to stdout by package report.
//
// Usage:
//
//	logger, err := logging.New(os.Stderr, "debug")
//	logger = logging.WithProvider(logger, "google")
//	logger.Warn("delete failed", logging.EventID(id), logging.Err(err))
package logging
