package domain

// SearchResult represents a single ranked passage.
type SearchResult struct {
	// Chunk is the matched passage.
	Chunk Chunk

	// Score is the relevance score. Overview short-circuit results use
	// synthetic descending scores; ranked results carry BM25 scores.
	Score float64

	// MatchedTerms are the expanded query terms that contributed to
	// the score.
	MatchedTerms []string

	// Explanation describes why this chunk was returned.
	Explanation string

	// Fallback marks results returned without ranking, when no query
	// term survived tokenisation and expansion.
	Fallback bool
}
