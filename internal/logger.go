package internal

import (
	"log"
	"os"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel = LogLevelWarn
	logger   = log.New(os.Stderr, "", 0)
)

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel = level
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelWarn)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	if logLevel >= LogLevelError {
		logger.Printf("[ERROR] "+format, args...)
	}
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	if logLevel >= LogLevelWarn {
		logger.Printf("[WARN] "+format, args...)
	}
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	if logLevel >= LogLevelInfo {
		logger.Printf("[INFO] "+format, args...)
	}
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	if logLevel >= LogLevelDebug {
		logger.Printf("[DEBUG] "+format, args...)
	}
}
