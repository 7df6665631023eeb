// Package embed implements the Embedder (C5 §4.4): produces vectors for
// chunks, documents, and summaries via a pluggable provider, and maintains
// each table's vector index.
package embed

import "context"

// Table is one of the three entity kinds carrying embeddings.
type Table string

const (
	TableChunk    Table = "chunk"
	TableDocument Table = "document"
	TableSummary  Table = "summary"
)

// embeddingTableFor returns the paired *_embedding table name for an entity
// table.
func embeddingTableFor(t Table) string {
	return string(t) + "_embedding"
}

// ProviderKind selects which wire protocol a Provider speaks.
type ProviderKind string

const (
	ProviderOllama ProviderKind = "ollama"
	ProviderOpenAI ProviderKind = "openai" // also covers vLLM and any OpenAI-compatible server
)

// Provider produces embedding vectors for a batch of texts, all with one
// model (§4.4 "Provider interface").
type Provider interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Config configures an Embedder.
type Config struct {
	Kind      ProviderKind
	BaseURL   string
	APIKey    string // unused by the Ollama provider
	Model     string
	Dimension int

	BatchSize int // default 64, clamped to [32, 100]

	// IndexRebuildFraction is the cumulative-insertion fraction of a
	// table's row count past which a vector index rebuild is scheduled
	// (§4.4 "Vector-index maintenance", default 0.20).
	IndexRebuildFraction float64
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:            64,
		IndexRebuildFraction: 0.20,
	}
}

func (c Config) batchSize() int {
	switch {
	case c.BatchSize <= 0:
		return 64
	case c.BatchSize < 32:
		return 32
	case c.BatchSize > 100:
		return 100
	default:
		return c.BatchSize
	}
}

// Capabilities is the introspection payload for /api/stats/capabilities
// (§4.4 "Provider capability reporting").
type Capabilities struct {
	ConfiguredProvider string   `json:"configuredProvider"`
	ConfiguredModel    string   `json:"configuredModel"`
	Dimension          int      `json:"dimension"`
	AvailableModels    []string `json:"availableModels,omitempty"`
}
