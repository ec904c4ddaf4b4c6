// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// Init builds the logger from a level name and a format ("text" or "json").
// Output goes to stderr so rendered tables on stdout stay clean. An invalid
// level falls back to info with a warning.
func Init(level, format string) *logrus.Logger {
	return InitWriter(os.Stderr, level, format)
}

// InitWriter is Init with an explicit output.
func InitWriter(w io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("invalid log level, using info")
	}

	logger = log
	return log
}

// Get returns the configured logger, initialising a default one if needed.
func Get() *logrus.Logger {
	if logger == nil {
		return Init("info", "text")
	}
	return logger
}

// WithCommand returns an entry tagged with the running subcommand.
func WithCommand(name string) *logrus.Entry {
	return Get().WithField("cmd", name)
}
