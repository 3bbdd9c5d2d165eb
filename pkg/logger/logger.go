// Package logger provides structured logging for WiFi Doctor using Logrus.
// It supports JSON and text formats, multiple log levels, and structured
// field logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log            *logrus.Logger
	mu             sync.RWMutex
	currentLogFile io.Closer
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Initialize sets up the global logger with the specified configuration.
// It is thread-safe and can be called multiple times.
func Initialize(level, format, output, outputFile string) error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close previous log file: %v\n", err)
		}
		currentLogFile = nil
	}

	log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}

	switch output {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr":
		log.SetOutput(os.Stderr)
	case "file":
		if outputFile == "" {
			return fmt.Errorf("logFile must be specified when logOutput is 'file'")
		}
		file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", outputFile, err)
		}
		currentLogFile = file
		log.SetOutput(file)
	default:
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", output)
	}

	return nil
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns a logger entry with structured fields.
//
//	logger.WithFields(logrus.Fields{
//	    "component": "engine",
//	    "round":     2,
//	}).Info("Round complete")
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// WithField returns a logger entry with a single structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithError returns a logger entry with an error field.
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

// Debugf logs a formatted message at level Debug.
func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

// Infof logs a formatted message at level Info.
func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

// Warnf logs a formatted message at level Warn.
func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}

// Errorf logs a formatted message at level Error.
func Errorf(format string, args ...interface{}) {
	Get().Errorf(format, args...)
}

// Close closes the log file if one is open. Safe to call multiple times.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		err := currentLogFile.Close()
		currentLogFile = nil
		return err
	}
	return nil
}
