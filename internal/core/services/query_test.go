package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/docqa/internal/adapters/driven/storage/memory"
	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
	"github.com/lessonforge/docqa/internal/search"
)

// mockGenerator records the prompt it was handed.
type mockGenerator struct {
	prompt string
	params driven.GenerationParams
	answer string
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, params driven.GenerationParams) (string, error) {
	m.prompt = prompt
	m.params = params
	return m.answer, m.err
}

// newQueryFixture ingests a document and returns a query service over it.
func newQueryFixture(t *testing.T, gen driven.Generator) (*QueryService, string) {
	t.Helper()
	cfg := domain.DefaultConfig()
	store := memory.NewDocumentStore(10)
	engine := search.NewEngine(cfg)

	ingest := newTestIngest(store)
	doc, err := ingest.IngestText(context.Background(), "bio.txt", sampleText(12), 4)
	require.NoError(t, err)

	return NewQueryService(store, engine, gen), doc.ID
}

func TestQueryService_Search(t *testing.T) {
	svc, docID := newQueryFixture(t, nil)

	results, err := svc.Search(context.Background(), docID, "how does photosynthesis store energy")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		assert.Contains(t, strings.ToLower(r.Chunk.Text), "photosynthesis")
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestQueryService_Search_UnknownDocument(t *testing.T) {
	svc, _ := newQueryFixture(t, nil)

	_, err := svc.Search(context.Background(), "missing", "photosynthesis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryService_Context(t *testing.T) {
	svc, docID := newQueryFixture(t, nil)

	contextText, results, err := svc.Context(context.Background(), docID, "photosynthesis glucose")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Contains(t, contextText, "photosynthesis")
	assert.Contains(t, contextText, "[Page")
}

func TestQueryService_Context_NoRelevantPassages(t *testing.T) {
	svc, docID := newQueryFixture(t, nil)

	_, _, err := svc.Context(context.Background(), docID, "quantum chromodynamics lattice")
	assert.ErrorIs(t, err, domain.ErrNoRelevantContext)
}

func TestQueryService_Answer(t *testing.T) {
	gen := &mockGenerator{answer: "Plants store energy as glucose."}
	svc, docID := newQueryFixture(t, gen)

	answer, err := svc.Answer(context.Background(), docID, "how is energy stored")
	require.NoError(t, err)
	assert.Equal(t, "Plants store energy as glucose.", answer)

	// The prompt carries both the retrieved passages and the question.
	assert.Contains(t, gen.prompt, "glucose")
	assert.Contains(t, gen.prompt, "Question: how is energy stored")
	assert.Equal(t, 256, gen.params.MaxTokens)
	assert.InDelta(t, 0.2, gen.params.Temperature, 1e-9)
}

func TestQueryService_Answer_WithoutGenerator(t *testing.T) {
	svc, docID := newQueryFixture(t, nil)

	_, err := svc.Answer(context.Background(), docID, "how is energy stored")
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestQueryService_Answer_GeneratorError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("model overloaded")}
	svc, docID := newQueryFixture(t, gen)

	_, err := svc.Answer(context.Background(), docID, "how is energy stored")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestQueryService_Answer_NoContextSkipsGeneration(t *testing.T) {
	gen := &mockGenerator{answer: "should never be produced"}
	svc, docID := newQueryFixture(t, gen)

	_, err := svc.Answer(context.Background(), docID, "quantum chromodynamics lattice")
	assert.ErrorIs(t, err, domain.ErrNoRelevantContext)
	assert.Empty(t, gen.prompt)
}

func TestQueryService_Describe(t *testing.T) {
	svc, docID := newQueryFixture(t, nil)

	doc, idf, err := svc.Describe(context.Background(), docID)
	require.NoError(t, err)

	assert.Equal(t, docID, doc.ID)
	assert.Contains(t, idf, "photosynthesis")
	for term, weight := range idf {
		assert.Greater(t, weight, 0.0, "term %q", term)
	}
}
