package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Column widths for aligned console output
const (
	ServiceNameWidth = 20 // Fixed width for service names
)

// LogEntry represents a single log entry
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Options controls where and how a Logger writes.
type Options struct {
	// Level is the minimum level written: debug, info, warn or error
	Level string
	// Format is "console" (default) or "json"
	Format string
	// Output receives console output; defaults to stdout
	Output io.Writer
	// File, when set, receives JSON output rotated by size
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger provides structured logging with streaming support
type Logger struct {
	serviceName string
	version     string

	level   zapcore.Level
	console *zap.Logger
	file    *zap.Logger
	rotator *lumberjack.Logger

	mu             sync.RWMutex
	subscribers    []chan LogEntry
	disableConsole bool
}

// New creates a new logger instance writing to stdout at INFO level
func New(serviceName, version string) *Logger {
	// zero Options always parse
	l, _ := NewWithOptions(serviceName, version, Options{})
	return l
}

// NewWithOptions creates a logger from explicit options.
func NewWithOptions(serviceName, version string, opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		consoleEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	l := &Logger{
		serviceName: serviceName,
		version:     version,
		level:       level,
		subscribers: make([]chan LogEntry, 0),
	}

	service := zap.Fields(zap.String("service", formatServiceName(serviceName)), zap.String("version", version))
	l.console = zap.New(zapcore.NewCore(consoleEncoder, zapcore.AddSync(out), level), service)

	if opts.File != "" {
		l.rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10), // megabytes
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 7), // days
			Compress:   opts.Compress,
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		l.file = zap.New(zapcore.NewCore(fileEncoder, zapcore.AddSync(l.rotator), level), service)
	}

	return l, nil
}

// NewNop returns a logger that discards everything.
// Subscribers still receive entries.
func NewNop() *Logger {
	return &Logger{
		serviceName:    "nop",
		level:          zapcore.DebugLevel,
		console:        zap.NewNop(),
		subscribers:    make([]chan LogEntry, 0),
		disableConsole: true,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// formatServiceName truncates and pads service name for consistent column width
func formatServiceName(serviceName string) string {
	if len(serviceName) > ServiceNameWidth {
		return serviceName[:ServiceNameWidth-1] + "~"
	}
	return serviceName
}

// ServiceName returns the name the logger was created with.
func (l *Logger) ServiceName() string { return l.serviceName }

// Version returns the version the logger was created with.
func (l *Logger) Version() string { return l.version }

// Subscribe returns a channel to receive log entries
func (l *Logger) Subscribe() <-chan LogEntry {
	ch := make(chan LogEntry, 100)

	l.mu.Lock()
	l.subscribers = append(l.subscribers, ch)
	l.mu.Unlock()

	return ch
}

// DisableConsoleOutput disables console output; file output and subscribers are unaffected
func (l *Logger) DisableConsoleOutput() {
	l.mu.Lock()
	l.disableConsole = true
	l.mu.Unlock()
}

// EnableConsoleOutput enables console output (default behavior)
func (l *Logger) EnableConsoleOutput() {
	l.mu.Lock()
	l.disableConsole = false
	l.mu.Unlock()
}

func (l *Logger) log(level zapcore.Level, message string, fields map[string]string) {
	if level < l.level {
		return
	}

	l.mu.RLock()
	toConsole := !l.disableConsole
	l.mu.RUnlock()

	var zf []zap.Field
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		zf = make([]zap.Field, 0, len(keys))
		for _, k := range keys {
			zf = append(zf, zap.String(k, fields[k]))
		}
	}

	if toConsole && l.console != nil {
		if ce := l.console.Check(level, message); ce != nil {
			ce.Write(zf...)
		}
	}
	if l.file != nil {
		if ce := l.file.Check(level, message); ce != nil {
			ce.Write(zf...)
		}
	}

	entry := LogEntry{
		Time:    time.Now(),
		Level:   level.CapitalString(),
		Message: message,
		Fields:  fields,
	}

	l.mu.RLock()
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// Skip if channel is full
		}
	}
	l.mu.RUnlock()
}

func sprintf(message string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// Debug logs a debug message with optional formatting
func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(zapcore.DebugLevel, sprintf(message, args), nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(zapcore.DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Info logs an info message with optional formatting
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(zapcore.InfoLevel, sprintf(message, args), nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(zapcore.InfoLevel, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message with optional formatting
func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(zapcore.WarnLevel, sprintf(message, args), nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(zapcore.WarnLevel, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message with optional formatting
func (l *Logger) Error(message string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, sprintf(message, args), nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// WithFields logs a message with additional fields
func (l *Logger) WithFields(fields map[string]string) *LogContext {
	return &LogContext{
		logger: l,
		fields: fields,
	}
}

// Rotate closes the current log file and starts a new one.
// It is a no-op when no file output is configured.
func (l *Logger) Rotate() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Rotate()
}

// Sync flushes buffered output and closes the log file.
func (l *Logger) Sync() error {
	if l.file != nil {
		_ = l.file.Sync()
	}
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// LogContext provides field-based logging
type LogContext struct {
	logger *Logger
	fields map[string]string
}

// Debug logs message at debug level with the context's fields.
func (c *LogContext) Debug(message string) {
	c.logger.log(zapcore.DebugLevel, message, c.fields)
}

// Info logs message at info level with the context's fields.
func (c *LogContext) Info(message string) {
	c.logger.log(zapcore.InfoLevel, message, c.fields)
}

// Warn logs message at warn level with the context's fields.
func (c *LogContext) Warn(message string) {
	c.logger.log(zapcore.WarnLevel, message, c.fields)
}

// Error logs message at error level with the context's fields.
func (c *LogContext) Error(message string) {
	c.logger.log(zapcore.ErrorLevel, message, c.fields)
}
