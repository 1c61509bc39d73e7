package main

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// newLogger builds the process logger. format is "text" or "json"; an unknown
// level falls back to info.
func newLogger(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// discardLogger is used when a component is built without a logger.
func discardLogger() *logrus.Logger {
	return newLogger(io.Discard, "error", "text")
}
