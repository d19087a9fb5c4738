package agent

import "testing"

func TestValidTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusIdle, StatusInitializing},
		{StatusInitializing, StatusProcessing},
		{StatusInitializing, StatusCompleted},
		{StatusInitializing, StatusFailed},
		{StatusProcessing, StatusValidating},
		{StatusProcessing, StatusTimeout},
		{StatusValidating, StatusCompleted},
		{StatusValidating, StatusFailed},
	}
	for _, tr := range allowed {
		if !IsValidTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be valid", tr.from, tr.to)
		}
	}
}

func TestBackwardTransitionsRejected(t *testing.T) {
	rejected := []struct{ from, to Status }{
		{StatusCompleted, StatusProcessing},
		{StatusFailed, StatusIdle},
		{StatusTimeout, StatusInitializing},
		{StatusProcessing, StatusInitializing},
		{StatusValidating, StatusProcessing},
		{StatusIdle, StatusCompleted},
	}
	for _, tr := range rejected {
		if IsValidTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be rejected", tr.from, tr.to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusTimeout} {
		if !IsTerminal(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusIdle, StatusInitializing, StatusProcessing, StatusValidating} {
		if IsTerminal(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
