package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	MinLevel    LogLevel
	Service     string
	Version     string
	Environment string
}

// LogContext holds contextual information for logging
type LogContext struct {
	Provider  string
	RequestID string
	PaymentID string
	Fields    map[string]any
}

// SystemLogger writes structured logs through zap
type SystemLogger struct {
	zl          *zap.Logger
	minLevel    LogLevel
	service     string
	version     string
	environment string
}

// NewSystemLogger builds a zap logger: JSON in production, console otherwise
func NewSystemLogger(config SystemLoggerConfig) (*SystemLogger, error) {
	var zc zap.Config
	if config.Environment == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.MessageKey = "message"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.OutputPaths = []string{"stdout"}
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(config.MinLevel.zapLevel())

	zl, err := zc.Build(zap.AddCaller(), zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return newSystemLogger(zl, config), nil
}

// NewSystemLoggerWithCore wraps an existing zap core, e.g. an observer in tests
func NewSystemLoggerWithCore(core zapcore.Core, config SystemLoggerConfig) *SystemLogger {
	return newSystemLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)), config)
}

func newSystemLogger(zl *zap.Logger, config SystemLoggerConfig) *SystemLogger {
	return &SystemLogger{
		zl: zl.With(
			zap.String("service", config.Service),
			zap.String("version", config.Version),
			zap.String("environment", config.Environment),
		),
		minLevel:    config.MinLevel,
		service:     config.Service,
		version:     config.Version,
		environment: config.Environment,
	}
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(zapcore.DebugLevel, message, nil, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(zapcore.InfoLevel, message, nil, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(zapcore.WarnLevel, message, nil, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.log(zapcore.ErrorLevel, message, err, ctx...)
}

// Fatal logs a fatal message and exits
func (sl *SystemLogger) Fatal(message string, err error, ctx ...LogContext) {
	sl.log(zapcore.ErrorLevel, message, err, ctx...)
	_ = sl.zl.Sync()
	os.Exit(1)
}

// Sync flushes buffered entries
func (sl *SystemLogger) Sync() {
	_ = sl.zl.Sync()
}

func (sl *SystemLogger) log(level zapcore.Level, message string, err error, ctx ...LogContext) {
	ce := sl.zl.Check(level, message)
	if ce == nil {
		return
	}

	var fields []zap.Field
	if len(ctx) > 0 {
		fields = contextFields(ctx[0])
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

func contextFields(c LogContext) []zap.Field {
	fields := make([]zap.Field, 0, 3+len(c.Fields))
	if c.Provider != "" {
		fields = append(fields, zap.String("provider", c.Provider))
	}
	if c.RequestID != "" {
		fields = append(fields, zap.String("request_id", c.RequestID))
	}
	if c.PaymentID != "" {
		fields = append(fields, zap.String("payment_id", c.PaymentID))
	}

	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, c.Fields[k]))
	}
	return fields
}

// WithContext creates a new logger with context
func (sl *SystemLogger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		systemLogger: sl,
		context:      ctx,
	}
}

// ContextLogger wraps SystemLogger with context
type ContextLogger struct {
	systemLogger *SystemLogger
	context      LogContext
}

// Debug logs a debug message with context
func (cl *ContextLogger) Debug(message string) {
	cl.systemLogger.Debug(message, cl.context)
}

// Info logs an info message with context
func (cl *ContextLogger) Info(message string) {
	cl.systemLogger.Info(message, cl.context)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(message string) {
	cl.systemLogger.Warn(message, cl.context)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(message string, err error) {
	cl.systemLogger.Error(message, err, cl.context)
}

// AddField returns a copy of the logger with an extra field
func (cl *ContextLogger) AddField(key string, value any) *ContextLogger {
	fields := make(map[string]any, len(cl.context.Fields)+1)
	for k, v := range cl.context.Fields {
		fields[k] = v
	}
	fields[key] = value

	next := *cl
	next.context.Fields = fields
	return &next
}

// SetPaymentID returns a copy of the logger bound to a payment
func (cl *ContextLogger) SetPaymentID(paymentID string) *ContextLogger {
	next := *cl
	next.context.PaymentID = paymentID
	return &next
}

// SetRequestID returns a copy of the logger bound to a request
func (cl *ContextLogger) SetRequestID(requestID string) *ContextLogger {
	next := *cl
	next.context.RequestID = requestID
	return &next
}
