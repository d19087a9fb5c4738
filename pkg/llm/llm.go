// Package llm provides the text-generation provider abstraction consumed by
// analysis tasks, with interchangeable backends selected via a factory.
package llm

import (
	"context"
)

// Format requests a response shape from the generator.
type Format string

const (
	// FormatText requests free-form prose.
	FormatText Format = "text"
	// FormatJSON requests a single JSON object. Backends without native
	// JSON modes enforce this through prompt instructions.
	FormatJSON Format = "json"
)

// Request describes one generation call.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
	Format      Format
}

// Response carries the generated text and the usage reported by the
// provider. TokensUsed is the total across prompt and completion; backends
// that do not report usage estimate it instead of returning zero.
type Response struct {
	Text       string
	TokensUsed int
}

// TextGenerator is the narrow contract tasks depend on. Implementations
// must fail with a typed *Error on quota exhaustion or timeout and must not
// silently truncate output.
type TextGenerator interface {
	// Generate produces a completion for the request.
	Generate(ctx context.Context, req Request) (Response, error)

	// Model returns the backing model identifier, for logging and metrics.
	Model() string
}

// jsonInstruction is appended to prompts when FormatJSON is requested and
// the backend has no native JSON mode.
const jsonInstruction = "\n\nRespond with a single valid JSON object and nothing else. No markdown fences, no commentary."

// promptFor renders the request prompt with any format instruction applied.
func promptFor(req Request) string {
	if req.Format == FormatJSON {
		return req.Prompt + jsonInstruction
	}
	return req.Prompt
}
