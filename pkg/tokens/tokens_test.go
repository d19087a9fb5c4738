package tokens

import (
	"strings"
	"testing"
)

func TestCountNonEmpty(t *testing.T) {
	counter, err := NewCounter("gpt-4")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	n := counter.Count("the quick brown fox jumps over the lazy dog")
	if n <= 0 {
		t.Errorf("expected positive token count, got %d", n)
	}
	if counter.Count("") != 0 {
		t.Error("expected zero tokens for empty string")
	}
}

func TestWithinLimit(t *testing.T) {
	counter, err := NewCounter("gpt-4")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	if !counter.WithinLimit("short", 100) {
		t.Error("short text should be within a 100 token budget")
	}
	long := strings.Repeat("word ", 1000)
	if counter.WithinLimit(long, 10) {
		t.Error("1000 words should not fit in a 10 token budget")
	}
}

func TestTruncate(t *testing.T) {
	counter, err := NewCounter("gpt-4")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	long := strings.Repeat("alpha beta gamma ", 500)
	truncated := counter.Truncate(long, 50)
	if len(truncated) >= len(long) {
		t.Error("expected truncation to shorten the text")
	}
	if !strings.HasSuffix(truncated, "...") {
		t.Error("expected truncation marker")
	}

	short := "untouched"
	if counter.Truncate(short, 100) != short {
		t.Error("text within budget must not be modified")
	}
}

func TestNilCounterFallback(t *testing.T) {
	var c *Counter
	if got := c.Count("12345678"); got != 2 {
		t.Errorf("expected char/4 fallback of 2, got %d", got)
	}
}
