// Package logger builds the zap loggers used by the server, the migration CLI
// and GORM, and carries request correlation fields through contexts.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ConfigFor returns the settings used when nothing is configured: coloured
// console output for development, JSON everywhere else.
func ConfigFor(env string) *Config {
	cfg := &Config{Level: "info", Format: "json", Output: "stdout", TimeFormat: defaultTimeFormat}
	if env == "" || env == "development" || env == "test" {
		cfg.Format = "console"
	}
	return cfg
}

// New builds a logger from cfg; a nil cfg means development defaults
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = ConfigFor("development")
	}
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg), sink, parseLevel(cfg.Level))
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg.Service != "" {
		l = l.With(zap.String("service", cfg.Service))
	}
	return l, nil
}

func parseLevel(level string) zapcore.Level {
	var lvl zapcore.Level
	if level == "warning" {
		level = "warn"
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func newEncoder(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = defaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "msg"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}

// Sync flushes buffered entries. Syncing a terminal fails with EINVAL, so the error is dropped.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}
