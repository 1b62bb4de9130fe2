package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/capsule-manager/capsule-manager/internal/config"
)

// FileName is the log file created inside the configured log directory.
const FileName = "capsule_manager.log"

// New creates a structured JSON logger from the resolved log configuration.
// Entries go to FileName under cfg.LogDir and, when enabled, to stderr.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "json"
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"
	zcfg.DisableStacktrace = false
	zcfg.OutputPaths = []string{filepath.Join(cfg.LogDir, FileName)}
	if cfg.EnableConsoleLogger {
		zcfg.OutputPaths = append(zcfg.OutputPaths, "stderr")
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
