package qslot

import (
	"log"
	"os"

	"github.com/rs/zerolog"
)

// Logger defines the logging interface used throughout the package
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// DefaultLogger implements Logger using standard log package
type DefaultLogger struct{}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, args ...any) {
	log.Printf("[INFO] "+msg, args...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...any) {
	log.Printf("[ERROR] "+msg, args...)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...any) {
	log.Printf("[DEBUG] "+msg, args...)
}

// SilentLogger implements Logger interface but does not output any logs
// This is useful for testing environments where log output is not desired
type SilentLogger struct{}

// NewSilentLogger creates a new silent logger instance
func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

// Info does nothing (silent)
func (l *SilentLogger) Info(msg string, args ...any) {
	// Silent - no output
}

// Error does nothing (silent)
func (l *SilentLogger) Error(msg string, args ...any) {
	// Silent - no output
}

// Debug does nothing (silent)
func (l *SilentLogger) Debug(msg string, args ...any) {
	// Silent - no output
}

// ZerologLogger adapts a zerolog.Logger to the Logger interface. The server
// binary uses this; library consumers may plug in anything else.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a structured logger writing to stderr.
// When pretty is true, output goes through zerolog's console writer.
func NewZerologLogger(level string, pretty bool) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if pretty {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	}

	return &ZerologLogger{zl: zl}
}

// Info logs an info message
func (l *ZerologLogger) Info(msg string, args ...any) {
	l.zl.Info().Msgf(msg, args...)
}

// Error logs an error message
func (l *ZerologLogger) Error(msg string, args ...any) {
	l.zl.Error().Msgf(msg, args...)
}

// Debug logs a debug message
func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.zl.Debug().Msgf(msg, args...)
}
