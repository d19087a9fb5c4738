package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	logger := NewLogger("test-component")
	logger.Info("hello %s", "world")
	logger.Warn("watch out")
	logger.Error("boom: %d", 42)

	out := buf.String()
	if !strings.Contains(out, "[INFO] test-component: hello world") {
		t.Errorf("missing info line, got: %s", out)
	}
	if !strings.Contains(out, "[WARN] test-component: watch out") {
		t.Errorf("missing warn line, got: %s", out)
	}
	if !strings.Contains(out, "[ERROR] test-component: boom: 42") {
		t.Errorf("missing error line, got: %s", out)
	}
}

func TestDebugGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	logger := NewLogger("cache")

	SetDebug(false)
	logger.Debug("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Error("debug line logged while debug disabled")
	}

	SetDebug(true)
	defer SetDebug(false)
	logger.Debug("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("debug line missing while debug enabled")
	}
}
