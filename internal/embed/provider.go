package embed

import "fmt"

// NewProvider builds the configured Provider implementation.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL)
	case ProviderOpenAI, "":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider kind %q", cfg.Kind)
	}
}
