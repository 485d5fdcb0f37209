package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger with the given level. An unknown level
// falls back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetOutput(os.Stdout)

	return l
}
