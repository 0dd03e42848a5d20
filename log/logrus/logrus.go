// Package logrus adapts a logrus entry to remoteop.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/remoteop"
)

var _ remoteop.Logger = Logger{}

type Logger struct{ e *logrus.Entry }

// New tags every line with component=remoteop. nil => logrus.StandardLogger().
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{e: l.WithField("component", "remoteop")}
}

func (l Logger) Debug(msg string, f remoteop.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f remoteop.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f remoteop.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f remoteop.Fields) { l.entry(f).Error(msg) }

// entry moves an "err" field to logrus' error key.
func (l Logger) entry(f remoteop.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.e
	}
	lf := make(logrus.Fields, len(f))
	var err error
	for k, v := range f {
		if e, ok := v.(error); ok && k == "err" {
			err = e
			continue
		}
		lf[k] = v
	}
	e := l.e.WithFields(lf)
	if err != nil {
		e = e.WithError(err)
	}
	return e
}
