package llm

import (
	"context"
	"testing"
)

func TestNewGeneratorMock(t *testing.T) {
	g, err := NewGenerator(ProviderMock, Options{})
	if err != nil {
		t.Fatalf("mock construction failed: %v", err)
	}
	resp, err := g.Generate(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("mock generation failed: %v", err)
	}
	if resp.Text == "" {
		t.Error("expected non-empty mock output")
	}
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	if _, err := NewGenerator("smoke-signals", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewGeneratorRequiresKeys(t *testing.T) {
	for _, provider := range []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		if _, err := NewGenerator(provider, Options{Model: "m"}); err == nil {
			t.Errorf("%s without API key should fail", provider)
		}
	}
}

func TestNewGeneratorAppliesRetryWrapper(t *testing.T) {
	g, err := NewGenerator(ProviderMock, Options{Retry: DefaultRetryConfig})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if _, ok := g.(*retryGenerator); !ok {
		t.Error("expected retry wrapper when retry policy is configured")
	}
	if g.Model() != "mock-model" {
		t.Errorf("wrapper must proxy Model(), got %q", g.Model())
	}
}

func TestOllamaGeneratorBadURLFallsBack(t *testing.T) {
	g := NewOllamaGenerator("://not-a-url", "llama3.1")
	if g.Model() != "llama3.1" {
		t.Errorf("unexpected model %q", g.Model())
	}
}
