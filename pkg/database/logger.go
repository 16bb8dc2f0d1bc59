package database

import (
	"strings"

	"lol.mleku.dev/log"
)

// log levels for the badger logger adapter
const (
	levelError = iota
	levelWarn
	levelInfo
	levelDebug
)

// logger adapts badger's logging interface onto the process logger so the
// store's internals share the relay's log stream and level policy.
type logger struct {
	level int
}

// NewLogger creates a badger logger at a named level.
func NewLogger(level string) *logger {
	l := &logger{level: levelWarn}
	l.SetLogLevel(level)
	return l
}

// SetLogLevel adjusts the level cutoff by name.
func (l *logger) SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "fatal", "error":
		l.level = levelError
	case "warn":
		l.level = levelWarn
	case "info":
		l.level = levelInfo
	case "debug", "trace":
		l.level = levelDebug
	}
}

func (l *logger) Errorf(format string, args ...any) {
	if l.level >= levelError {
		log.E.F("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *logger) Warningf(format string, args ...any) {
	if l.level >= levelWarn {
		log.W.F("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *logger) Infof(format string, args ...any) {
	if l.level >= levelInfo {
		log.I.F("badger: "+strings.TrimSpace(format), args...)
	}
}

func (l *logger) Debugf(format string, args ...any) {
	if l.level >= levelDebug {
		log.D.F("badger: "+strings.TrimSpace(format), args...)
	}
}
