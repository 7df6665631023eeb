package summary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaProvider calls an Ollama server's /api/generate endpoint.
type OllamaProvider struct {
	client *api.Client
}

// NewOllamaProvider builds a provider against baseURL (e.g. http://localhost:11434).
func NewOllamaProvider(baseURL string) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return &OllamaProvider{client: api.NewClient(u, http.DefaultClient)}, nil
}

// Summarize issues a non-streaming generate call and concatenates the
// (single) response chunk.
func (p *OllamaProvider) Summarize(ctx context.Context, model, prompt string) (string, error) {
	stream := false
	var out strings.Builder
	err := p.client.Generate(ctx, &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}
