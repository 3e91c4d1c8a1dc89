// Package logger provides the structured logging interface used across xpurge.
//
// It wraps zerolog behind a small Logger interface with:
//   - leveled methods (Debug, Info, Warn, Error, Fatal)
//   - structured fields through WithField, WithFields and WithError
//   - a colored console writer on stderr, plus an optional append-only file
//   - a process-wide logger (Initialize, GetLogger)
//   - NewNopLogger and TestLogger for tests
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "pipeline")
//	log.InfoWithFields("batch fetched", map[string]interface{}{"count": 100})
//
// Stdout is left to the command's own progress output.
package logger
