package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	log.SetOutput(os.Stdout)
}

func Get() *logrus.Logger {
	return log
}

// SetLevel adjusts verbosity from configuration, defaulting to info when the
// name is unknown.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// Error logs an error with its origin fields.
func Error(module, funcName string, err error) {
	log.WithFields(logrus.Fields{
		"module":   module,
		"funcName": funcName,
	}).Error(err.Error())
}

// Errorw logs an error with origin fields plus extra context data.
func Errorw(module, funcName string, err error, data any) {
	log.WithFields(logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"data":     data,
	}).Error(err.Error())
}
