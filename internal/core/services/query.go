package services

import (
	"context"
	"fmt"

	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
	"github.com/lessonforge/docqa/internal/core/ports/driving"
	"github.com/lessonforge/docqa/internal/logger"
	"github.com/lessonforge/docqa/internal/search"
)

// Ensure QueryService implements the interface.
var _ driving.Searcher = (*QueryService)(nil)

// answerPrompt frames the assembled context for the downstream model.
const answerPrompt = `Answer the question using only the passages below. If the passages do not contain the answer, say so.

%s

Question: %s
Answer:`

// defaultAnswerTokens caps generated answers.
const defaultAnswerTokens = 256

// QueryService answers queries over persisted documents. Search and
// context assembly are pure computations over stored data and may run
// concurrently with unrelated writes.
type QueryService struct {
	store     driven.DocumentStore
	engine    *search.Engine
	generator driven.Generator // optional
}

// NewQueryService creates a query service. The generator is optional
// (can be nil); without it, Answer is disabled but Search and Context
// still work.
func NewQueryService(store driven.DocumentStore, engine *search.Engine, generator driven.Generator) *QueryService {
	return &QueryService{
		store:     store,
		engine:    engine,
		generator: generator,
	}
}

// Search loads the document's chunks and vocabulary, derives IDF
// weights, and ranks the chunks against the query. IDF is recomputed
// on every read rather than cached, so re-indexing can never serve
// stale weights.
func (s *QueryService) Search(ctx context.Context, documentID, query string) ([]domain.SearchResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	chunks, err := s.store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	vocab, err := s.store.GetVocabulary(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	idx := search.IndexFromVocabulary(vocab, doc.TotalChunks, doc.AvgChunkLength)
	return s.engine.Search(query, chunks, idx), nil
}

// Context runs Search and assembles the token-budgeted context string.
// Returns domain.ErrNoRelevantContext when nothing matched, so the
// caller never prompts the model with an empty context.
func (s *QueryService) Context(ctx context.Context, documentID, query string) (string, []domain.SearchResult, error) {
	results, err := s.Search(ctx, documentID, query)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, domain.ErrNoRelevantContext
	}
	return s.engine.BuildContext(results), results, nil
}

// Answer assembles the context and prompts the generation collaborator.
func (s *QueryService) Answer(ctx context.Context, documentID, question string) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}

	contextText, results, err := s.Context(ctx, documentID, question)
	if err != nil {
		return "", err
	}
	logger.Debug("answering with %d passages", len(results))

	prompt := fmt.Sprintf(answerPrompt, contextText, question)
	answer, err := s.generator.Generate(ctx, prompt, driven.GenerationParams{
		MaxTokens:   defaultAnswerTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return answer, nil
}

// Describe returns a document's summary together with its derived IDF
// table, freshly computed from the stored vocabulary.
func (s *QueryService) Describe(ctx context.Context, documentID string) (*domain.Document, map[string]float64, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	vocab, err := s.store.GetVocabulary(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	return doc, search.IDF(vocab, doc.TotalChunks), nil
}
