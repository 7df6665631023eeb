package embed

import "testing"

func TestNewProviderUnknownKind(t *testing.T) {
	_, err := NewProvider(Config{Kind: "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unknown provider kind")
	}
}

func TestNewProviderDefaultsToOpenAICompatible(t *testing.T) {
	p, err := NewProvider(Config{BaseURL: "http://localhost:8000/v1"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("expected *OpenAIProvider for empty Kind, got %T", p)
	}
}

func TestNewProviderOllama(t *testing.T) {
	p, err := NewProvider(Config{Kind: ProviderOllama, BaseURL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := p.(*OllamaProvider); !ok {
		t.Errorf("expected *OllamaProvider, got %T", p)
	}
}
