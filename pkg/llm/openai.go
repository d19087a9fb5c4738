package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// openaiGenerator implements TextGenerator on the OpenAI Responses API.
type openaiGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAI-backed generator.
func NewOpenAIGenerator(apiKey, model string) TextGenerator {
	return &openaiGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate implements TextGenerator.
func (o *openaiGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	input := promptFor(req)
	if req.System != "" {
		input = fmt.Sprintf("System: %s\n\n%s", req.System, input)
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:     openai.Float(req.Temperature),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, Classify(err)
	}
	if resp == nil {
		return Response{}, NewError(ErrorTypeEmptyResponse, "received nil response from OpenAI API")
	}

	text := resp.OutputText()
	if text == "" {
		return Response{}, NewError(ErrorTypeEmptyResponse, "OpenAI response contained no output text")
	}

	return Response{
		Text:       text,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

// Model returns the configured model identifier.
func (o *openaiGenerator) Model() string {
	return o.model
}
