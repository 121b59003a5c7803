package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/docqa/internal/core/domain"
)

func TestIDF_SmoothedFormula(t *testing.T) {
	vocab := domain.Vocabulary{"photosynthesis": 2, "the": 10, "rare": 1}
	idf := IDF(vocab, 10)

	assert.InDelta(t, math.Log(11.0/3.0)+1, idf["photosynthesis"], 1e-9)
	assert.InDelta(t, math.Log(11.0/11.0)+1, idf["the"], 1e-9)
	assert.InDelta(t, math.Log(11.0/2.0)+1, idf["rare"], 1e-9)

	// Rarer terms always weigh more, and the smoothing keeps every
	// weight positive even for ubiquitous terms.
	assert.Greater(t, idf["rare"], idf["photosynthesis"])
	assert.Greater(t, idf["photosynthesis"], idf["the"])
	assert.Equal(t, 1.0, idf["the"])
}

func TestIDF_EmptyVocabulary(t *testing.T) {
	assert.Empty(t, IDF(domain.Vocabulary{}, 0))
}

func TestBuildIndex_DistinctChunkFrequencies(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())
	chunks := []domain.Chunk{
		{Text: "glucose glucose glucose energy", WordCount: 4},
		{Text: "glucose metabolism pathway", WordCount: 3},
		{Text: "unrelated topic entirely", WordCount: 3},
	}

	idx := e.BuildIndex(chunks)

	// Document frequency counts chunks, not occurrences.
	assert.Equal(t, 2, idx.Vocabulary["glucose"])
	assert.Equal(t, 1, idx.Vocabulary["energy"])
	assert.Equal(t, 3, idx.TotalChunks)
	assert.InDelta(t, 10.0/3.0, idx.AvgChunkLength, 1e-9)
	require.NotNil(t, idx.IDF)
	assert.InDelta(t, math.Log(4.0/3.0)+1, idx.IDF["glucose"], 1e-9)
}

func TestBuildIndex_DropsStopwordsAndShortTokens(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())
	idx := e.BuildIndex([]domain.Chunk{{Text: "the cell is an engine of chemistry", WordCount: 7}})

	assert.NotContains(t, idx.Vocabulary, "the")
	assert.NotContains(t, idx.Vocabulary, "is")
	assert.NotContains(t, idx.Vocabulary, "an")
	assert.Contains(t, idx.Vocabulary, "cell")
	assert.Contains(t, idx.Vocabulary, "chemistry")
}

func TestIndexFromVocabulary_RoundTrip(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())
	chunks := []domain.Chunk{
		{Text: "volcanic eruptions reshape landscapes", WordCount: 4},
		{Text: "eruptions eject ash and magma", WordCount: 5},
	}
	built := e.BuildIndex(chunks)

	restored := IndexFromVocabulary(built.Vocabulary, built.TotalChunks, built.AvgChunkLength)
	assert.Equal(t, built.IDF, restored.IDF)
	assert.Equal(t, built.TotalChunks, restored.TotalChunks)
	assert.Equal(t, built.AvgChunkLength, restored.AvgChunkLength)
}

func TestTokenize(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())

	assert.Equal(t, []string{"quick", "brown", "foxes", "bm25"},
		e.tokenize("The Quick-Brown FOXES, BM25!"))
	assert.Empty(t, e.tokenize("a an it"))
	assert.Empty(t, e.tokenize("472 9301 88"))
	assert.Empty(t, e.tokenize(""))
}

func TestExpand_SynonymsDeduplicated(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())

	expanded := e.expand([]string{"define", "osmosis", "meaning"})
	assert.Equal(t, []string{"define", "definition", "meaning", "osmosis"}, expanded)
}

func TestExpand_NoSynonyms(t *testing.T) {
	e := NewEngine(domain.DefaultConfig())
	assert.Equal(t, []string{"osmosis"}, e.expand([]string{"osmosis"}))
	assert.Empty(t, e.expand(nil))
}
