package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Logger is safe for use by units compiled in parallel. A nil *Logger discards everything.
type Logger struct {
	mu         sync.Mutex
	prefix     string
	level      LogLevel
	out        io.Writer
	errOut     io.Writer
	errorCount int
	warnCount  int
}

func NewLogger(prefix string, level LogLevel) *Logger {
	return &Logger{prefix: prefix, level: level, out: os.Stdout, errOut: os.Stderr}
}

// WithOutput redirects both streams, mainly for tests.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	l.out = w
	l.errOut = w
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(LogLevelWarning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	switch level {
	case LogLevelError:
		l.errorCount++
	case LogLevelWarning:
		l.warnCount++
	}
	if level < l.level {
		return
	}

	output := l.out
	if level >= LogLevelWarning {
		output = l.errOut
	}
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "%s [%s] %s\n", l.prefix, level, message)
}

func (l *Logger) ErrorCount() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorCount
}

// PrintSummary prints a summary of logged messages
func (l *Logger) PrintSummary() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.errorCount > 0 || l.warnCount > 0 {
		fmt.Fprintf(l.errOut, "\n%s Compilation Summary:\n", l.prefix)
		if l.errorCount > 0 {
			fmt.Fprintf(l.errOut, "  Errors: %d\n", l.errorCount)
		}
		if l.warnCount > 0 {
			fmt.Fprintf(l.errOut, "  Warnings: %d\n", l.warnCount)
		}
	}
}
