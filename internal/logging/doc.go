// Package logging provides structured logging for the adminkit runtime.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. The event bus, the component lifecycle and the API
// client all take a [*Logger]; each derives child loggers carrying the
// component, request or event it is working on.
//
// # Basic Usage
//
//	logger := logging.NewWriterLogger(os.Stderr, "INFO")
//
//	logger.Info("component mounted", "name", "navigation")
//	logger.Warn("mount ignored", "reason", "already mounted")
//
// Child loggers keep persistent attributes:
//
//	compLogger := logger.WithComponent("4b1d...", "breadcrumb")
//	compLogger.Debug("render", "bytes", 120)
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"render","component_id":"4b1d...","component":"breadcrumb","bytes":120}
//
// # Testing
//
// Use [NopLogger] to discard all output:
//
//	logger := logging.NopLogger()
//
// # Log Levels
//
// [LevelDebug], [LevelInfo] (default), [LevelWarn] and [LevelError]. Use
// [ValidLevels] to list them and [ParseLevel] to normalize user input.
package logging
