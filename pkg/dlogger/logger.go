// Package dlogger exposes a zap logger writing to the console and, optionally,
// to a daily log file.
package dlogger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"

	// DefaultLogDir is where daily log files go when file logging is enabled without a directory
	DefaultLogDir = "/var/log/autokit"

	timeLayout = "2006-01-02 15:04:05"
)

type options struct {
	level   string
	logDir  string
	toFile  bool
	console zapcore.WriteSyncer
	now     func() time.Time
}

// Option configures the logger
type Option func(*options)

// Level sets the console log level (defaults to info)
func Level(level string) Option {
	return func(o *options) {
		if level != "" {
			o.level = level
		}
	}
}

// LogDir enables the daily log file, written at debug level under dir.
func LogDir(dir string) Option {
	return func(o *options) {
		o.toFile = true
		if dir != "" {
			o.logDir = dir
		}
	}
}

// Console redirects console output (defaults to stderr)
func Console(w zapcore.WriteSyncer) Option {
	return func(o *options) {
		o.console = w
	}
}

// Clock sets the time source used to name the daily log file
func Clock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// FileName returns the name of the daily log file for t
func FileName(t time.Time) string {
	return "autokit_" + t.Format("20060102") + ".log"
}

// GetLogger returns a zap logger with the specified options
func GetLogger(opts ...Option) (*zap.Logger, error) {
	o := options{
		level:   LogLevelInfo,
		logDir:  DefaultLogDir,
		console: zapcore.Lock(os.Stderr),
		now:     time.Now,
	}
	for _, apply := range opts {
		apply(&o)
	}
	if o.level == LogLevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(o.level)); err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), o.console, zap.NewAtomicLevelAt(lvl)),
	}

	if o.toFile {
		if err := os.MkdirAll(o.logDir, 0755); err != nil {
			return nil, fmt.Errorf("creating log dir %q: %w", o.logDir, err)
		}
		name := filepath.Join(o.logDir, FileName(o.now()))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %q: %w", name, err)
		}
		// the file always gets debug details, whatever the console level
		fileLevel := zapcore.DebugLevel
		if lvl < fileLevel {
			fileLevel = lvl
		}
		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), zap.NewAtomicLevelAt(fileLevel)))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("autokit"), nil
}

// MustGetLogger returns a zap logger with the specified options or panics
func MustGetLogger(opts ...Option) *zap.Logger {
	l, err := GetLogger(opts...)
	if err != nil {
		panic(err)
	}
	return l
}
