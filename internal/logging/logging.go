// Package logging builds the zap logger used by the CLI and adapts it to the
// service Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure New.
type Options struct {
	Level  string // debug, info, warn or error
	Format string // console or json
	File   string // optional rotated JSON log file
	// Console receives human-facing output; stderr when nil.
	Console io.Writer
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a logger writing to the console and, when File is set, to a
// size-rotated JSON file.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := encoderConfig()
	var consoleEncoder zapcore.Encoder
	switch opts.Format {
	case "", "console":
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		consoleEncoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(console), level),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    20,
				MaxBackups: 3,
				MaxAge:     14,
				Compress:   true,
			}),
			level,
		))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

// Adapter exposes a zap logger through the key/value Logger interface used by
// the service, the gate and the snapshotter.
type Adapter struct {
	s *zap.SugaredLogger
}

// NewAdapter wraps l. The caller frame skips the adapter itself.
func NewAdapter(l *zap.Logger) *Adapter {
	return &Adapter{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Debug logs msg at debug level with args as alternating key/value pairs.
func (a *Adapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }

// Info logs msg at info level with args as alternating key/value pairs.
func (a *Adapter) Info(msg string, args ...any) { a.s.Infow(msg, args...) }

// Warn logs msg at warn level with args as alternating key/value pairs.
func (a *Adapter) Warn(msg string, args ...any) { a.s.Warnw(msg, args...) }

// Error logs msg at error level with args as alternating key/value pairs.
func (a *Adapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }

// Sync flushes buffered entries.
func (a *Adapter) Sync() error { return a.s.Sync() }
