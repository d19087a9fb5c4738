package llm

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// geminiGenerator implements TextGenerator on the Google GenAI API.
// Client creation requires a context, so it is deferred to the first call.
type geminiGenerator struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(apiKey, model string) TextGenerator {
	return &geminiGenerator{
		apiKey: apiKey,
		model:  model,
	}
}

func (g *geminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, WrapError(ErrorTypeAuth, "failed to create Gemini client", err)
	}
	g.client = client
	return client, nil
}

// Generate implements TextGenerator.
func (g *geminiGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return Response{}, err
	}

	//nolint:gosec // MaxTokens is config-bounded well below int32 range
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: promptFor(req)}},
	}}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return Response{}, Classify(err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return Response{}, NewError(ErrorTypeEmptyResponse, "received empty response from Gemini API")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return Response{}, NewError(ErrorTypeEmptyResponse, "Gemini response contained no text parts")
	}

	tokens := 0
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.TotalTokenCount)
	}
	if tokens == 0 {
		// Usage metadata is occasionally absent; estimate rather than report zero.
		tokens = (len(req.Prompt) + len(text)) / 4
	}

	return Response{Text: text, TokensUsed: tokens}, nil
}

// Model returns the configured model identifier.
func (g *geminiGenerator) Model() string {
	return g.model
}
