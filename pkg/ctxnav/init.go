// Package ctxnav is a navigation and context-binding engine for record-based
// applications. It decides which data context a page displays, encodes
// entity keys in hash fragments, coordinates deferred and async context
// creation, tracks the depth of a multi-column layout and keeps the history
// in line with the application's own navigation.
//
// The Navigator ties the engine together. It is built from an application
// manifest (see the config package) and a data model, and routing starts with
// InitializeRouting.
package ctxnav

import (
	"log/slog"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/config"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
)

// Options configures the engine's logging.
type Options struct {
	LogPath    string // Full path for log file including filename (creates parent directories)
	LogLevel   string // Application log level ("debug", "info", "warn", "error")
	MaxSizeMB  int    // Size of the log file before it is rotated
	MaxBackups int    // Rotated files to keep
	MaxAgeDays int    // Days to keep rotated files
	Compress   bool   // Gzip rotated files
}

// OptionsFromConfig returns the logging options of a manifest.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		LogPath:    c.Log.Path,
		LogLevel:   c.Log.Level,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// Init configures logging. Call it before the first Navigator is created.
// The internal log level is debug if CTXNAV_DEBUG is set and error otherwise.
func Init(options Options) {
	if options.LogPath != "" {
		internal.SetLogPath(options.LogPath)
	}
	if options.MaxSizeMB > 0 {
		internal.SetLogRotation(internal.LogRotation{
			MaxSizeMB:  options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAgeDays: options.MaxAgeDays,
			Compress:   options.Compress,
		})
	}

	if constants.IsDebug() {
		internal.SetInternalLogLevel(slog.LevelDebug)
	} else {
		internal.SetInternalLogLevel(slog.LevelError)
	}

	if options.LogLevel != "" {
		internal.SetRawLogLevel(options.LogLevel)
	}
}

// Close flushes and closes the log file.
func Close() {
	internal.CloseLogger()
}

// SetLogPath sets the full path for the log file, including filename.
// Call before Init() to take effect.
func SetLogPath(path string) {
	internal.SetLogPath(path)
}

// GetLogger returns the application logger for structured logging.
func GetLogger() *slog.Logger {
	return internal.GetLogger()
}

// SetLogLevel sets the minimum log level for the application logger.
func SetLogLevel(level slog.Level) {
	internal.SetLogLevel(level)
}

// SetRawLogLevel parses and sets the log level from a string (e.g., "debug", "info", "error").
func SetRawLogLevel(level string) {
	internal.SetRawLogLevel(level)
}
