// Package logger wraps zerolog with context-aware loggers and a buffered writer.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// contextKey is the type for context keys
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LoggerKey is the context key for logger
	LoggerKey contextKey = "logger"
)

var (
	globalLogger zerolog.Logger
	globalWriter *AsyncWriter
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// InitWithFile initializes the logger with console and rotating file output.
func InitWithFile(filename, level, format string, enableConsole bool) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		panic(err)
	}

	logFile := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var output io.Writer = logFile
	if enableConsole {
		output = io.MultiWriter(os.Stdout, logFile)
	}

	Init(Config{Level: level, Format: format, Output: output})
}

// Init initializes the global logger
func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	aw := NewAsyncWriter(output, 4096)
	globalWriter = aw
	output = aw

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		count := 0
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				count++
				short = file[i+1:]
				if count == 2 {
					break
				}
			}
		}
		return fmt.Sprintf("%s:%d", short, line)
	}

	if cfg.Format == "console" {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "2006-01-02 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-7s", i))
			},
			PartsOrder: []string{
				zerolog.TimestampFieldName,
				zerolog.LevelFieldName,
				zerolog.CallerFieldName,
				zerolog.MessageFieldName,
			},
		}
		globalLogger = zerolog.New(consoleWriter).With().Timestamp().Caller().Logger()
	} else {
		globalLogger = zerolog.New(output).With().Timestamp().Caller().Logger()
	}
}

// Flush forces buffered logs to be written out
func Flush() {
	if globalWriter != nil {
		_ = globalWriter.Close()
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithRequestID creates a new context carrying the request ID and a derived logger
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := globalLogger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, LoggerKey, &logger)
}

// FromContext extracts the logger from context, falling back to the global one
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if logger, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger := globalLogger.With().Str("request_id", requestID).Logger()
		return &logger
	}
	return &globalLogger
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithFields derives a context logger with extra fields attached
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	event := FromContext(ctx).With()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	newLogger := event.Logger()
	return context.WithValue(ctx, LoggerKey, &newLogger)
}

// Debug logs a debug message
func Debug(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Debug()
}

// Info logs an info message
func Info(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Info()
}

// Warn logs a warning message
func Warn(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Warn()
}

// Error logs an error message
func Error(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Error()
}

// Fatal logs a fatal message and exits
func Fatal(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Fatal()
}

// Global logger methods for call sites without a context

func DebugGlobal() *zerolog.Event { return globalLogger.Debug() }
func InfoGlobal() *zerolog.Event  { return globalLogger.Info() }
func WarnGlobal() *zerolog.Event  { return globalLogger.Warn() }
func ErrorGlobal() *zerolog.Event { return globalLogger.Error() }
func FatalGlobal() *zerolog.Event { return globalLogger.Fatal() }
