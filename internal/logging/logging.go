package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Setup configures the process logger. The TUI owns the terminal, so
// log output goes to a file under the config directory; the returned
// closer flushes and releases it.
func Setup(level string) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	path := logPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	log.SetOutput(f)

	return log, f, nil
}

// logPath returns the log file location under the config directory.
func logPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "projectboard.log")
	}
	return filepath.Join(home, ".config", "projectboard", "projectboard.log")
}
