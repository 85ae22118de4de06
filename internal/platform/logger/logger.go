// Package logger builds the process logger. INFO and WARN go to stdout,
// ERROR and above to stderr. When a file is configured every enabled level
// is also written there.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and an optional log file.
type Config struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	TimeFormat string `mapstructure:"time_format"`
	File       string `mapstructure:"file"`
}

// New returns the logger and a cleanup func that syncs it and closes the
// log file, if one was opened.
func New(cfg Config) (*zap.Logger, func(), error) {
	stdout := zapcore.Lock(os.Stdout)
	stderr := zapcore.Lock(os.Stderr)

	var file zapcore.WriteSyncer
	closeFile := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = zapcore.Lock(f)
		closeFile = func() { f.Close() }
	}

	log := build(cfg, stdout, stderr, file)
	cleanup := func() {
		_ = log.Sync()
		closeFile()
	}
	return log, cleanup, nil
}

// build tees the split console cores with the optional file core.
func build(cfg Config, stdout, stderr, file zapcore.WriteSyncer) *zap.Logger {
	level := ParseLevel(cfg.Level)
	enc := encoder(cfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(enc, stdout, low),
		zapcore.NewCore(enc.Clone(), stderr, high),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(enc.Clone(), file, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel reads a level name, falling back to info.
func ParseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func encoder(cfg Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	if cfg.TimeFormat != "" {
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	} else {
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if cfg.Encoding == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
