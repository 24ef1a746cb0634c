package cli

import (
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger creates the shared logger. The level comes from LOG_LEVEL
// (default info); verbose forces debug.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		parsed, err := logrus.ParseLevel(raw)
		if err != nil {
			log.Warnf("Invalid LOG_LEVEL '%s', defaulting to 'info'", raw)
		} else {
			level = parsed
		}
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
