package domain

// Config holds the RAG pipeline configuration. Defaults are tuned for
// a small downstream language model with a tight context window.
type Config struct {
	// ChunkSize is the target chunk length in words.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the number of trailing words carried into the
	// next sub-chunk when a segment is split.
	ChunkOverlap int `toml:"chunk_overlap"`

	// MinChunkSize is the minimum chunk length in words. Trailing
	// fragments below it are merged into the previous chunk.
	MinChunkSize int `toml:"min_chunk_size"`

	// TopK is the maximum number of search results.
	TopK int `toml:"top_k"`

	// MinScore filters out weakly matching chunks.
	MinScore float64 `toml:"min_score"`

	// BM25K1 controls term-frequency saturation.
	BM25K1 float64 `toml:"bm25_k1"`

	// BM25B controls chunk-length normalisation.
	BM25B float64 `toml:"bm25_b"`

	// MaxContextTokens caps the assembled context, estimated at one
	// token per four characters.
	MaxContextTokens int `toml:"max_context_tokens"`

	// IncludePageNumbers prefixes context sections with page markers.
	IncludePageNumbers bool `toml:"include_page_numbers"`

	// Rerank enables the heuristic reranking pass after BM25 scoring.
	Rerank bool `toml:"rerank"`

	// MaxDocuments is the resident document limit; saves beyond it
	// evict the least recently accessed documents.
	MaxDocuments int `toml:"max_documents"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:          300,
		ChunkOverlap:       30,
		MinChunkSize:       50,
		TopK:               3,
		MinScore:           0.5,
		BM25K1:             1.5,
		BM25B:              0.75,
		MaxContextTokens:   800,
		IncludePageNumbers: true,
		Rerank:             true,
		MaxDocuments:       10,
	}
}
