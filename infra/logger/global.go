package logger

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *SystemLogger
	mu           sync.RWMutex
)

const (
	serviceName    = "paynow"
	serviceVersion = "1.0.0"
)

// InitGlobalLogger initializes the global system logger for the given environment
func InitGlobalLogger(environment string) error {
	config := SystemLoggerConfig{
		MinLevel:    LevelInfo,
		Service:     serviceName,
		Version:     serviceVersion,
		Environment: environment,
	}
	if environment == "" || environment == "development" {
		config.MinLevel = LevelDebug
	}

	sl, err := NewSystemLogger(config)
	if err != nil {
		return err
	}
	SetGlobalLogger(sl)
	return nil
}

// SetGlobalLogger replaces the global logger
func SetGlobalLogger(sl *SystemLogger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = sl
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.RLock()
	sl := globalLogger
	mu.RUnlock()
	if sl != nil {
		return sl
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = NewSystemLoggerWithCore(zapcore.NewNopCore(), SystemLoggerConfig{
			MinLevel:    LevelInfo,
			Service:     serviceName,
			Version:     serviceVersion,
			Environment: "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// Sync flushes the global logger
func Sync() {
	GetGlobalLogger().Sync()
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}
