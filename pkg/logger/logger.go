package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Service string
	Level   string
	// Format is "json" (default) or "text"
	Format string
	Out    io.Writer
}

// New builds a logrus logger and returns an entry carrying the service field.
func New(opts Options) *logrus.Entry {
	log := logrus.New()
	log.Level = ParseLevel(opts.Level)
	log.Out = opts.Out
	if log.Out == nil {
		log.Out = os.Stdout
	}

	if strings.EqualFold(opts.Format, "text") {
		log.Formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}
	} else {
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}

	return log.WithField("service", opts.Service)
}

// Discard returns an entry that writes nowhere. Handy in tests.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return logrus.NewEntry(log)
}

func ParseLevel(lvl string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
