package embed

import "testing"

func TestConfigBatchSizeClamping(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero uses default", 0, 64},
		{"negative uses default", -5, 64},
		{"below floor clamps up", 10, 32},
		{"above ceiling clamps down", 500, 100},
		{"within range passes through", 48, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{BatchSize: tt.in}
			if got := cfg.batchSize(); got != tt.want {
				t.Errorf("batchSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEmbeddingTableFor(t *testing.T) {
	tests := map[Table]string{
		TableChunk:    "chunk_embedding",
		TableDocument: "document_embedding",
		TableSummary:  "summary_embedding",
	}
	for table, want := range tests {
		if got := embeddingTableFor(table); got != want {
			t.Errorf("embeddingTableFor(%s) = %s, want %s", table, got, want)
		}
	}
}
