// Package logx provides structured logging with component-scoped loggers
// and environment-driven debug gating.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Logger writes leveled, component-tagged log lines.
type Logger struct {
	component string
	logger    *log.Logger
}

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	debugEnabled bool
	debugDomains map[string]bool // nil means all domains
	debugMu      sync.RWMutex

	output   io.Writer = os.Stderr
	outputMu sync.RWMutex
)

func init() {
	initDebugFromEnv()
}

// initDebugFromEnv reads DEBUG and DEBUG_DOMAINS.
// DEBUG=1 enables debug logging; DEBUG_DOMAINS=cache,llm restricts it.
func initDebugFromEnv() {
	debugMu.Lock()
	defer debugMu.Unlock()

	debug := os.Getenv("DEBUG")
	debugEnabled = debug == "1" || strings.EqualFold(debug, "true")

	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugDomains = make(map[string]bool)
		for _, d := range strings.Split(domains, ",") {
			debugDomains[strings.TrimSpace(d)] = true
		}
	}
}

// SetDebug enables or disables debug logging at runtime.
func SetDebug(enabled bool) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugEnabled = enabled
	debugDomains = nil
}

// SetOutput redirects all loggers to w. A nil w restores stderr.
// Intended for tests.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	output = w
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(writerProxy{}, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// writerProxy resolves the package output at write time so SetOutput
// affects loggers created earlier.
type writerProxy struct{}

func (writerProxy) Write(p []byte) (int, error) {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output.Write(p)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", level, l.component, msg)
}

// Debug logs a debug message if debug logging is enabled for this component.
func (l *Logger) Debug(format string, args ...any) {
	debugMu.RLock()
	enabled := debugEnabled && (debugDomains == nil || debugDomains[l.component])
	debugMu.RUnlock()

	if !enabled {
		return
	}
	l.logf(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.logf(LevelError, format, args...)
}
