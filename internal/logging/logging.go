// Package logging initializes process-wide structured logging.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/triagekit/triagekit/internal/config"
)

// Init configures the global logrus logger from config. Log output goes to
// stderr so command output on stdout stays machine-readable; a configured
// log file takes precedence and is size-rotated.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("cannot parse log level %q: %w", cfg.Level, err)
	}

	output, outErr := buildOutput(cfg)

	logrus.SetLevel(level)
	logrus.SetOutput(output)
	logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	if outErr != nil {
		logrus.WithField("path", cfg.File).Warn(outErr.Error())
	}
	return nil
}

// buildOutput creates the log writer; on failure it degrades to stderr and
// returns the error so Init can record the fallback.
func buildOutput(cfg config.LogConfig) (io.Writer, error) {
	if cfg.File == "" {
		return os.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return os.Stderr, fmt.Errorf("cannot create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}, nil
}
