// Package tokens provides tiktoken-based token counting for prompt budgeting.
package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Counter provides token counting for a given model family.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a counter for the specified model. Non-OpenAI models
// are approximated with the GPT-4 encoding, which is close enough for
// budget checks.
func NewCounter(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in text. Falls back to a 4-chars-per-
// token estimate if the codec is unavailable.
func (c *Counter) Count(text string) int {
	if c == nil || c.codec == nil {
		return len(text) / 4
	}
	n, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// WithinLimit reports whether text fits in the given token budget.
func (c *Counter) WithinLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Truncate trims text so it fits roughly within the given token budget.
// Truncation is by characters, not exact token boundaries.
func (c *Counter) Truncate(text string, limit int) string {
	current := c.Count(text)
	if current <= limit {
		return text
	}

	ratio := float64(limit) / float64(current)
	charLimit := int(float64(len(text)) * ratio * 0.9) // safety margin
	if charLimit >= len(text) {
		return text
	}
	return text[:charLimit] + "..."
}

// Estimate counts tokens without a Counter instance, using the GPT-4
// encoding. Used where constructing a counter per call would be wasteful.
func Estimate(text string) int {
	counter, err := NewCounter("gpt-4")
	if err != nil {
		return len(text) / 4
	}
	return counter.Count(text)
}
