package search

import (
	"math"

	"github.com/lessonforge/docqa/internal/core/domain"
)

// Index is the per-document lexical index: vocabulary document
// frequencies plus derived IDF weights and length statistics.
type Index struct {
	// Vocabulary maps term to the number of distinct chunks
	// containing it.
	Vocabulary domain.Vocabulary

	// IDF maps term to its smoothed inverse document frequency.
	IDF map[string]float64

	// TotalChunks is the chunk count the index was built over.
	TotalChunks int

	// AvgChunkLength is the mean chunk length in words, used by BM25
	// length normalisation.
	AvgChunkLength float64
}

// BuildIndex tokenizes the chunks and builds the document-frequency
// table and IDF weights.
func (e *Engine) BuildIndex(chunks []domain.Chunk) *Index {
	vocab := make(domain.Vocabulary)
	totalWords := 0
	for _, c := range chunks {
		seen := make(map[string]struct{})
		for _, t := range e.tokenize(c.Text) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			vocab[t]++
		}
		totalWords += c.WordCount
	}

	idx := &Index{
		Vocabulary:  vocab,
		TotalChunks: len(chunks),
	}
	if len(chunks) > 0 {
		idx.AvgChunkLength = float64(totalWords) / float64(len(chunks))
	}
	idx.IDF = IDF(vocab, idx.TotalChunks)
	return idx
}

// IDF derives smoothed inverse document frequencies from a vocabulary:
// ln((N+1)/(df+1)) + 1. It is recomputed on read rather than persisted,
// so a re-index can never leave stale weights behind.
func IDF(vocab domain.Vocabulary, totalChunks int) map[string]float64 {
	idf := make(map[string]float64, len(vocab))
	n := float64(totalChunks)
	for term, df := range vocab {
		idf[term] = math.Log((n+1)/(float64(df)+1)) + 1
	}
	return idf
}

// IndexFromVocabulary reconstructs an Index from persisted state.
func IndexFromVocabulary(vocab domain.Vocabulary, totalChunks int, avgChunkLength float64) *Index {
	return &Index{
		Vocabulary:     vocab,
		IDF:            IDF(vocab, totalChunks),
		TotalChunks:    totalChunks,
		AvgChunkLength: avgChunkLength,
	}
}
