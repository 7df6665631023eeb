// Package summary implements the Summarizer (C5): produces short natural
// language summaries for files and symbols via a pluggable LLM provider, the
// way Embedder produces vectors (§4.4, §4.7 SUMMARIZE_* job types). The
// synthesis call itself is an external collaborator; only its contract
// (model in, text out) is in scope here.
package summary

import "context"

// EntityType is one of the two entities a summary can describe.
type EntityType string

const (
	EntityFile   EntityType = "file"
	EntitySymbol EntityType = "symbol"
)

// ProviderKind selects which wire protocol a Provider speaks.
type ProviderKind string

const (
	ProviderOllama ProviderKind = "ollama"
	ProviderOpenAI ProviderKind = "openai"
)

// Provider synthesizes one summary from a prompt built out of an entity's
// content (source text or signature+doc-comment).
type Provider interface {
	Summarize(ctx context.Context, model, prompt string) (string, error)
}

// Config configures a Summarizer.
type Config struct {
	Kind    ProviderKind
	BaseURL string
	APIKey  string
	Model   string

	MaxContentChars int // prompt truncation, default 4000
}

// DefaultConfig returns the stated defaults.
func DefaultConfig() Config {
	return Config{MaxContentChars: 4000}
}

func (c Config) maxContentChars() int {
	if c.MaxContentChars <= 0 {
		return 4000
	}
	return c.MaxContentChars
}

// Result is the outcome of one summarize_missing run.
type Result struct {
	Candidates int
	Summarized int
	Duration   string
}
