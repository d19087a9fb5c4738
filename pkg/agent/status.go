package agent

// Status tracks where an execution is in its pipeline. Transitions are
// strictly forward; a new execution always starts over at StatusIdle.
type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusInitializing Status = "INITIALIZING"
	StatusProcessing   Status = "PROCESSING"
	StatusValidating   Status = "VALIDATING"
	StatusCompleted    Status = "COMPLETED"
	StatusFailed       Status = "FAILED"
	StatusTimeout      Status = "TIMEOUT"
)

// validTransitions defines the execution status machine.
//
//nolint:gochecknoglobals // Intentional package-level constant for state machine definition
var validTransitions = map[Status][]Status{
	StatusIdle: {
		StatusInitializing,
	},
	StatusInitializing: {
		StatusProcessing,
		StatusCompleted, // cache hit skips processing
		StatusFailed,    // input validation failure
		StatusTimeout,
	},
	StatusProcessing: {
		StatusValidating,
		StatusFailed,
		StatusTimeout,
	},
	StatusValidating: {
		StatusCompleted,
		StatusFailed,
		StatusTimeout,
	},
	StatusCompleted: {
		// Terminal
	},
	StatusFailed: {
		// Terminal
	},
	StatusTimeout: {
		// Terminal
	},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status Status) bool {
	return len(validTransitions[status]) == 0
}
