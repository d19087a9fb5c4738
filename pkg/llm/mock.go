package llm

import (
	"context"
	"sync"
)

// MockGenerator is a scriptable TextGenerator for tests and local
// development. It is safe for concurrent use.
type MockGenerator struct {
	mu sync.Mutex

	// GenerateFunc, when set, handles each call. Otherwise the canned
	// Response/Err pair is returned.
	GenerateFunc func(ctx context.Context, req Request) (Response, error)
	Response     Response
	Err          error
	ModelName    string

	calls []Request
}

// NewMockGenerator returns a mock that echoes a fixed response.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{
		Response:  Response{Text: text, TokensUsed: len(text) / 4},
		ModelName: "mock-model",
	}
}

// Generate implements TextGenerator.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.GenerateFunc
	resp, err := m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Model implements TextGenerator.
func (m *MockGenerator) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Calls returns a copy of all requests seen so far.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request{}, m.calls...)
}

// CallCount returns the number of Generate invocations.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
