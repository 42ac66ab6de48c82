// Package logging provides the run logger, metric tables and the per-file analysis report
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DebugLogName is the log file used while the interactive view owns the terminal
const DebugLogName = "autocut-debug.log"

// NewLogger creates a text logger writing to w at level
func NewLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// NewFileLogger creates a logger writing to the file at path. The returned
// close function must be called when the run ends.
func NewFileLogger(path string, level logrus.Level) (*logrus.Logger, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	log := NewLogger(f, level)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log, f.Close, nil
}
