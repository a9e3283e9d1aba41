package logging

import "github.com/sirupsen/logrus"

// Logrus adapts *logrus.Logger to the Logger interface. Grounded on
// apache-mynewt-newt's sirupsen/logrus dependency; the level mapping
// (silent -> ErrorLevel, verbose -> DebugLevel, else InfoLevel) follows
// spec.md §6's silent/verbose options.
type Logrus struct {
	l *logrus.Logger
}

// NewLogrus builds a Logrus-backed Logger at the given level.
func NewLogrus(silent, verbose bool) *Logrus {
	l := logrus.New()
	switch {
	case silent:
		l.SetLevel(logrus.ErrorLevel)
	case verbose:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
	return &Logrus{l: l}
}

func fieldsToLogrus(fields []Field) logrus.Fields {
	f := make(logrus.Fields, len(fields))
	for _, fld := range fields {
		f[fld.Key] = fld.Value
	}
	return f
}

func (lg *Logrus) Debug(msg string, fields ...Field) {
	lg.l.WithFields(fieldsToLogrus(fields)).Debug(msg)
}

func (lg *Logrus) Info(msg string, fields ...Field) {
	lg.l.WithFields(fieldsToLogrus(fields)).Info(msg)
}

func (lg *Logrus) Warn(msg string, fields ...Field) {
	lg.l.WithFields(fieldsToLogrus(fields)).Warn(msg)
}

func (lg *Logrus) Error(msg string, fields ...Field) {
	lg.l.WithFields(fieldsToLogrus(fields)).Error(msg)
}
