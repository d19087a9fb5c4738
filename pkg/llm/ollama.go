package llm

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// ollamaGenerator implements TextGenerator on a local Ollama runtime.
type ollamaGenerator struct {
	client *api.Client
	model  string
}

// NewOllamaGenerator creates a generator backed by an Ollama server.
// hostURL should be the server URL, e.g. "http://localhost:11434".
func NewOllamaGenerator(hostURL, model string) TextGenerator {
	parsedURL, err := url.Parse(hostURL)
	if err != nil || hostURL == "" {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}

	return &ollamaGenerator{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}
}

// Generate implements TextGenerator.
func (o *ollamaGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	messages := make([]api.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: promptFor(req)})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return Response{}, Classify(err)
	}
	if response.Message.Content == "" {
		return Response{}, NewError(ErrorTypeEmptyResponse, "received empty response from Ollama")
	}

	return Response{
		Text:       response.Message.Content,
		TokensUsed: response.Metrics.PromptEvalCount + response.Metrics.EvalCount,
	}, nil
}

// Model returns the configured model identifier.
func (o *ollamaGenerator) Model() string {
	return o.model
}
