package internal

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogRotation configures the rotating log file.
type LogRotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	logPath     string
	logRotation = LogRotation{MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30}
	rotator     *lumberjack.Logger

	setupOnce   sync.Once
	multiWriter io.Writer

	loggerOnce sync.Once
	logger     *slog.Logger
	levelVar   *slog.LevelVar

	internalLoggerOnce sync.Once
	internalLogger     *slog.Logger
	internalLevelVar   *slog.LevelVar
)

// SetLogPath sets the full path for the log file, including filename.
// Creates all necessary parent directories. An empty path logs to stdout only.
func SetLogPath(path string) {
	logPath = path
}

// SetLogRotation sets the rotation policy of the log file.
func SetLogRotation(r LogRotation) {
	logRotation = r
}

// SetLogOutput replaces the log destination. Must be called before the first
// logger is requested; tests use it to capture output.
func SetLogOutput(w io.Writer) {
	setupOnce.Do(func() {
		multiWriter = w
	})
}

func setup() {
	setupOnce.Do(func() {
		if logPath == "" {
			multiWriter = os.Stdout
			return
		}

		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			multiWriter = os.Stdout
			return
		}

		rotator = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    logRotation.MaxSizeMB,
			MaxBackups: logRotation.MaxBackups,
			MaxAge:     logRotation.MaxAgeDays,
			Compress:   logRotation.Compress,
		}

		multiWriter = io.MultiWriter(os.Stdout, rotator)
	})
}

func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		levelVar = &slog.LevelVar{}

		setup()

		handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
			Level:     levelVar,
			AddSource: false,
		})
		logger = slog.New(handler)
	})
	return logger
}

func GetInternalLogger() *slog.Logger {
	internalLoggerOnce.Do(func() {
		internalLevelVar = &slog.LevelVar{}
		internalLevelVar.Set(slog.LevelError)

		setup()

		handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
			Level:     internalLevelVar,
			AddSource: false,
		})
		internalLogger = slog.New(handler).With("component", "ctxnav")
	})
	return internalLogger
}

func SetLogLevel(level slog.Level) {
	GetLogger()
	levelVar.Set(level)
}

func SetInternalLogLevel(level slog.Level) {
	GetInternalLogger()
	internalLevelVar.Set(level)
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a slog level.
// Anything else is info.
func ParseLevel(rawLevel string) slog.Level {
	switch strings.ToLower(rawLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func SetRawLogLevel(rawLevel string) {
	GetLogger()
	levelVar.Set(ParseLevel(rawLevel))
}

func CloseLogger() {
	if rotator != nil {
		rotator.Close()
	}
}
