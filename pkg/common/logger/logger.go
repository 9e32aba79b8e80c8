package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init configures the process logger from LOG_LEVEL and writes JSON lines to stdout.
func Init() {
	InitWithOutput(os.Stdout)
}

// InitWithOutput is Init for binaries whose stdout is reserved for results.
func InitWithOutput(out io.Writer) {
	Log = logrus.New()
	Log.SetOutput(out)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	Log.SetLevel(logLevel)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// WithComponent tags every entry with the emitting subsystem.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
