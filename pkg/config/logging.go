package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger. JSON output is used by the api and
// worker, text with full timestamps by the scheduler. When LOG_FILE is set, output goes
// to that file instead of stdout.
func InitLogger(s LoggingSettings, json bool) *logrus.Logger {
	logger := logrus.StandardLogger()

	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(s.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if s.File != "" {
		os.MkdirAll(filepath.Dir(s.File), 0755)
		file, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logger.SetOutput(file)
		} else {
			logger.Warnf("Cannot open log file %s, logging to stdout: %v", s.File, err)
		}
	}
	return logger
}
