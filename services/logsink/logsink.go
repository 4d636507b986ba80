// Package logsink routes device log records to one process-wide sink.
//
// Records below the configured level are dropped before they reach the
// sink. Interrupt callbacks never log.
package logsink

import (
	"fmt"
	"sync/atomic"
)

type Level uint8

const (
	Error Level = iota
	Warn
	Info
	Debug
)

var levelNames = [...]string{"error", "warn", "info", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, bool) {
	for i, n := range levelNames {
		if n == s {
			return Level(i), true
		}
	}
	return 0, false
}

// Sink receives every record that passes the level filter.
type Sink interface {
	Log(level Level, tag, msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(level Level, tag, msg string)

func (f SinkFunc) Log(level Level, tag, msg string) { f(level, tag, msg) }

type holder struct{ s Sink }

var (
	current   atomic.Pointer[holder]
	threshold atomic.Uint32
)

func init() {
	current.Store(&holder{Glog{}})
	threshold.Store(uint32(Warn))
}

// SetDefault installs s as the process sink. A nil s discards records.
func SetDefault(s Sink) {
	if s == nil {
		s = Discard
	}
	current.Store(&holder{s})
}

func Default() Sink { return current.Load().s }

// SetLevel passes records at l and more severe.
func SetLevel(l Level) { threshold.Store(uint32(l)) }

func CurrentLevel() Level { return Level(threshold.Load()) }

func Enabled(l Level) bool { return uint32(l) <= threshold.Load() }

// Log sends one record to the default sink.
func Log(l Level, tag, msg string) {
	if !Enabled(l) {
		return
	}
	Default().Log(l, tag, msg)
}

func Logf(l Level, tag, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	Default().Log(l, tag, fmt.Sprintf(format, args...))
}

func Errorf(tag, format string, args ...any) { Logf(Error, tag, format, args...) }
func Warnf(tag, format string, args ...any)  { Logf(Warn, tag, format, args...) }
func Infof(tag, format string, args ...any)  { Logf(Info, tag, format, args...) }
func Debugf(tag, format string, args ...any) { Logf(Debug, tag, format, args...) }

// Discard drops everything.
var Discard Sink = SinkFunc(func(Level, string, string) {})

// Fanout sends each record to every sink in order.
type Fanout []Sink

func (f Fanout) Log(level Level, tag, msg string) {
	for _, s := range f {
		s.Log(level, tag, msg)
	}
}
