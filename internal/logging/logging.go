/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package logging provides structured logging for all components, backed
// by zerolog. Output goes to stderr so generated answers and tabular
// results on stdout stay machine-readable.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// envLogLevel controls the minimum level when no explicit configuration
// is supplied. Defaults to warn to keep CLI output quiet.
const envLogLevel = "ETLVALID_LOG_LEVEL"

var logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := ParseLevel(os.Getenv(envLogLevel))
	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to
// warn rather than failing, matching the permissive env-var contract.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// Configure replaces the global logger. Format "console" produces
// human-readable output for interactive use; anything else emits JSON.
func Configure(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger = zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Logger returns the configured global logger for callers that need
// zerolog's full event API.
func Logger() *zerolog.Logger {
	return &logger
}

// Debug logs a debug-level message with alternating key/value fields.
func Debug(msg string, keyvals ...interface{}) {
	emit(logger.Debug(), msg, keyvals)
}

// Info logs an info-level message with alternating key/value fields.
func Info(msg string, keyvals ...interface{}) {
	emit(logger.Info(), msg, keyvals)
}

// Warn logs a warning-level message with alternating key/value fields.
func Warn(msg string, keyvals ...interface{}) {
	emit(logger.Warn(), msg, keyvals)
}

// Error logs an error-level message with alternating key/value fields.
func Error(msg string, keyvals ...interface{}) {
	emit(logger.Error(), msg, keyvals)
}

func emit(ev *zerolog.Event, msg string, keyvals []interface{}) {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		switch v := keyvals[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case error:
			ev = ev.AnErr(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
