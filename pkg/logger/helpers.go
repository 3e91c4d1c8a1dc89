package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed HTTP exchange, choosing the level from the status code
func LogRequest(l Logger, method, endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(l Logger, endpoint string, retryAfter time.Duration) {
	l.WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogAction logs the outcome of a single delete or unlike
func LogAction(l Logger, kind, id string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"kind": kind,
		"id":   id,
	})
	if err != nil {
		entry.WithError(err).Warn("Action failed")
		return
	}
	entry.Debug("Action completed")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                    {}
func (n *nopLogger) Info(string)                                     {}
func (n *nopLogger) Warn(string)                                     {}
func (n *nopLogger) Error(string)                                    {}
func (n *nopLogger) Fatal(string)                                    {}
func (n *nopLogger) WithField(string, interface{}) Logger            { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger        { return n }
func (n *nopLogger) WithError(error) Logger                          { return n }
func (n *nopLogger) WithContext(context.Context) Logger              { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(string, map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
