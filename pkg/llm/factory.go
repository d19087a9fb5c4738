package llm

import (
	"context"
	"fmt"
)

// Provider identifiers accepted by NewGenerator.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// Options configure generator construction.
type Options struct {
	APIKey string
	Model  string
	Host   string // Ollama only
	Retry  RetryConfig
}

// NewGenerator constructs a TextGenerator for the named provider, wrapped
// with the retry policy when one is configured. Generators are plain values
// with no shared global state; construct one per coordinator and inject it.
func NewGenerator(provider string, opts Options) (TextGenerator, error) {
	var g TextGenerator

	switch provider {
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		g = NewAnthropicGenerator(opts.APIKey, opts.Model)
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		g = NewOpenAIGenerator(opts.APIKey, opts.Model)
	case ProviderOllama:
		g = NewOllamaGenerator(opts.Host, opts.Model)
	case ProviderGemini:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		g = NewGeminiGenerator(opts.APIKey, opts.Model)
	case ProviderMock:
		g = newFactoryMock()
	default:
		return nil, fmt.Errorf("unknown text generation provider %q", provider)
	}

	if opts.Retry.MaxRetries > 0 {
		g = WithRetry(g, opts.Retry)
	}
	return g, nil
}

// mockAnalysisJSON carries one key set wide enough to satisfy every task's
// output schema, so the mock provider works end to end in local runs.
const mockAnalysisJSON = `{
	"summary": "mock analysis output",
	"marketSize": "unknown",
	"growthRate": "unknown",
	"revenueModel": "unknown",
	"competitors": [],
	"marketGaps": [],
	"differentiation": []
}`

func newFactoryMock() *MockGenerator {
	return &MockGenerator{
		ModelName: "mock-model",
		GenerateFunc: func(_ context.Context, req Request) (Response, error) {
			text := "mock generation output"
			if req.Format == FormatJSON {
				text = mockAnalysisJSON
			}
			return Response{Text: text, TokensUsed: (len(req.Prompt) + len(text)) / 4}, nil
		},
	}
}
