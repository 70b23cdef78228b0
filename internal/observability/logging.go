// Package observability holds the process-wide loggers.
//
// Commands log through CLILogger; library packages accept a logger where
// they need one and default to a nop logger otherwise.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by CLI commands.
//
// It defaults to a console logger at info level; Init reconfigures it
// from loaded configuration.
var CLILogger = mustConsoleLogger("info")

// Init rebuilds the process loggers from configuration.
func Init(level, format string) error {
	logger, err := build(level, format)
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// build creates a zap logger for the given level and encoding.
func build(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	} else {
		cfg.Encoding = "json"
	}

	// Keep stdout clean for JSONL results; logs go to stderr.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

func mustConsoleLogger(level string) *zap.Logger {
	logger, err := build(level, "console")
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
