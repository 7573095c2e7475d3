// Package logger provides structured logging for meshterm.
//
// This package wraps log/slog:
//
//   - logger.go: handler construction, process-wide level control
//   - writer.go: io.Writer bridge for libraries that log through *log.Logger
//
// Features:
//
//   - JSON and text output formats
//   - Runtime level switching (driven by the terminal's debug command)
//   - Standardized error key
package logger
