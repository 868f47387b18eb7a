// Package logging assembles structured slog loggers and formatting helpers used
// across neuroscope.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so extractor code can tag log lines
// with the session folder and a save correlation ID. The package also provides
// a no-op logger for tests and library callers that do not want output.
package logging
