// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls logger initialization.
type Config struct {
	Format    string // "json" or "text"
	Level     string // "debug", "info", "warn", "error"
	Component string // optional component name
	Output    io.Writer
}

// Init configures the standard logrus logger and returns an entry carrying
// the component field. Unknown levels fall back to info.
func Init(cfg Config) logrus.FieldLogger {
	l := logrus.StandardLogger()
	configure(l, cfg)
	if cfg.Component != "" {
		return l.WithField("component", cfg.Component)
	}
	return l
}

func configure(l *logrus.Logger, cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
}
