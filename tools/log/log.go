// Package log is a thin wrapper around logrus so callers don't import it directly.
package log

import (
	"github.com/sirupsen/logrus"
)

type (
	Level         = logrus.Level
	Fields        = logrus.Fields
	TextFormatter = logrus.TextFormatter
	JSONFormatter = logrus.JSONFormatter
	Formatter     = logrus.Formatter
)

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)

var (
	Panic  = logrus.Panic
	Panicf = logrus.Panicf
	Fatal  = logrus.Fatal
	Fatalf = logrus.Fatalf
	Error  = logrus.Error
	Errorf = logrus.Errorf
	Warn   = logrus.Warn
	Warnf  = logrus.Warnf
	Info   = logrus.Info
	Infof  = logrus.Infof
	Debug  = logrus.Debug
	Debugf = logrus.Debugf

	WithField  = logrus.WithField
	WithFields = logrus.WithFields
	WithError  = logrus.WithError

	SetLevel     = logrus.SetLevel
	SetFormatter = logrus.SetFormatter
	SetOutput    = logrus.SetOutput
)
