// Package dexlog wraps a single package-level logrus logger for the whole
// module. It is the one place call sites reach into for debug/warn/error
// traffic: decode termination traces, missing-field reads, missing statics,
// cast-mismatch warnings.
package dexlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.Out = os.Stderr
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLevel adjusts the package logger's verbosity, e.g. logrus.DebugLevel
// for the "-debug" driver flag.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

func Debug(args ...interface{})            { log.Debug(args...) }
func Debugf(format string, a ...interface{}) { log.Debugf(format, a...) }
func Warn(args ...interface{})             { log.Warn(args...) }
func Warnf(format string, a ...interface{})  { log.Warnf(format, a...) }
func Error(args ...interface{})            { log.Error(args...) }
func Errorf(format string, a ...interface{}) { log.Errorf(format, a...) }
func Info(args ...interface{})             { log.Info(args...) }
func Infof(format string, a ...interface{})  { log.Infof(format, a...) }
