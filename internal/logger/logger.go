// Package logger is a small leveled wrapper over the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level controls verbosity.
type Level int

const (
	LevelOff Level = iota
	LevelNormal
	LevelVerbose
)

// ParseLevel maps "off", "normal" and "verbose" (or "debug") to a Level.
func ParseLevel(value string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "off", "none", "quiet":
		return LevelOff, nil
	case "", "normal", "info":
		return LevelNormal, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	}
	return LevelNormal, fmt.Errorf("parse log level %q: unknown level", value)
}

func (level Level) String() string {
	switch level {
	case LevelOff:
		return "off"
	case LevelVerbose:
		return "verbose"
	default:
		return "normal"
	}
}

// Logger is safe for concurrent use.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	debug  *log.Logger
	info   *log.Logger
	warn   *log.Logger
	errLog *log.Logger
}

// New creates a logger writing to out, or os.Stderr when out is nil.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	flags := log.Ldate | log.Ltime
	return &Logger{
		level:  level,
		debug:  log.New(out, "[DBG] ", flags),
		info:   log.New(out, "[INF] ", flags),
		warn:   log.New(out, "[WRN] ", flags),
		errLog: log.New(out, "[ERR] ", flags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(LevelOff, io.Discard)
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) Debug(format string, args ...any) {
	l.output(LevelVerbose, func(l *Logger) *log.Logger { return l.debug }, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.output(LevelNormal, func(l *Logger) *log.Logger { return l.info }, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.output(LevelNormal, func(l *Logger) *log.Logger { return l.warn }, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.output(LevelNormal, func(l *Logger) *log.Logger { return l.errLog }, format, args...)
}

// A nil *Logger is valid and silent.
func (l *Logger) output(threshold Level, target func(*Logger) *log.Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level < threshold {
		return
	}
	_ = target(l).Output(3, fmt.Sprintf(format, args...))
}
