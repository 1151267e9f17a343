package core

import (
	"log"
	"os"
)

// Logger interface for simulation logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// DefaultLogger writes through the standard log package
type DefaultLogger struct {
	out *log.Logger
}

// NewDefaultLogger creates a logger that writes timestamped lines to stdout
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{out: log.New(os.Stdout, "", log.LstdFlags)}
}

func (l *DefaultLogger) Printf(format string, args ...interface{}) {
	l.out.Printf(format, args...)
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}
