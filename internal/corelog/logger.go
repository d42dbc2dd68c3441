// Package corelog wraps the logrus logger used throughout qdevcore so that
// call sites log with consistent level handling instead of reaching for the
// global logrus package directly.
package corelog

import (
	"github.com/sirupsen/logrus"
)

// log is the logger instance used by the rest of the module.
var log = logrus.New()

// SetDebug toggles debug-level logging on or off.
func SetDebug(debug bool) {
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// Fields is a re-export of logrus.Fields so callers do not need to import
// logrus directly just to attach structured context to a log line.
type Fields = logrus.Fields

// WithFields returns a log entry with the given structured context attached.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// WithField returns a log entry with a single field of structured context attached.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func Debug(args ...interface{})                 { log.Debug(args...) }
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func Info(args ...interface{})                  { log.Info(args...) }
func Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func Warn(args ...interface{})                  { log.Warn(args...) }
func Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func Error(args ...interface{})                 { log.Error(args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Fatal(args ...interface{})                 { log.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }
