package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	Level string
	// File enables a rotating log file next to stdout.
	File string
}

// Logger wraps logrus with an optional rotating file sink.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New builds a logger writing to stdout and, when configured, to a rotating file.
func New(opts Options) (*Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	base := logrus.New()
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	logger := &Logger{Logger: base}
	var out io.Writer = os.Stdout
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		logger.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
		}
		out = io.MultiWriter(os.Stdout, logger.file)
	}
	base.SetOutput(out)
	return logger, nil
}

// Close flushes and closes the file sink.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return base
}
