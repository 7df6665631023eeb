package summary

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// NewProvider builds the Provider named by cfg.Kind.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL)
	case ProviderOpenAI, "":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Kind)
	}
}

// OpenAIProvider calls an OpenAI-compatible /v1/chat/completions endpoint.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider builds a provider against baseURL; an empty apiKey is
// valid for servers that don't enforce auth.
func NewOpenAIProvider(baseURL, apiKey string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

// Summarize issues a single-turn chat completion and returns the first
// choice's message content.
func (p *OpenAIProvider) Summarize(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
