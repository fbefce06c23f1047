// Package logger holds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared logger. It is a no-op logger until Init is called so
// packages can log safely from tests.
var Log = zap.NewNop()

// Init builds the shared logger. With a log file the production JSON encoder
// writes to both the file and stdout; otherwise the development console
// encoder is used. Unknown levels fall back to info.
func Init(level string, logFile string) error {
	var cfg zap.Config

	if logFile != "" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{logFile, "stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = built.With(zap.String("service", "engagement-engine"))
	return nil
}

func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Sync flushes any buffered log entries.
func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}
