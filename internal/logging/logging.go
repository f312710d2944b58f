// Package logging builds the zap loggers shared by the desktop app and the CLI.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

var (
	mu      sync.RWMutex
	current *zap.Logger
)

// New builds a logger for mode and tees every entry into the extra sinks
// using a console encoder. The result also becomes the zap global.
func New(mode string, sinks ...io.Writer) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeProduction:
		cfg = zap.NewProductionConfig()
	case ModeDevelopment:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log mode %q", mode)
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var opts []zap.Option
	if len(sinks) > 0 {
		enc := cfg.EncoderConfig
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc.CallerKey = zapcore.OmitKey
		enc.StacktraceKey = zapcore.OmitKey
		level := cfg.Level
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			cores := []zapcore.Core{core}
			for _, w := range sinks {
				cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level))
			}
			return zapcore.NewTee(cores...)
		}))
	}

	l, err := cfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	set(l)
	return l, nil
}

func set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	zap.ReplaceGlobals(l)
	if current != nil {
		_ = current.Sync()
	}
	current = l
}

// L returns the last logger built by New, or the zap global.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if current != nil {
		return current
	}
	return zap.L()
}

// Sync flushes the current logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if current != nil {
		_ = current.Sync()
	}
}
