package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicGenerator implements TextGenerator on the Anthropic Messages API.
type anthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicGenerator creates a Claude-backed generator.
func NewAnthropicGenerator(apiKey, model string) TextGenerator {
	return &anthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Generate implements TextGenerator.
func (a *anthropicGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptFor(req))),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: req.System,
			Type: "text",
		}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, Classify(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return Response{}, NewError(ErrorTypeEmptyResponse, "received empty response from Claude API")
	}

	var text string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return Response{}, NewError(ErrorTypeEmptyResponse, "Claude response contained no text blocks")
	}

	return Response{
		Text:       text,
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

// Model returns the configured model identifier.
func (a *anthropicGenerator) Model() string {
	return string(a.model)
}
