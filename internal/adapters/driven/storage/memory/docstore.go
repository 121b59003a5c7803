// Package memory provides the volatile in-memory DocumentStore
// backend. It exposes the identical contract as the SQLite backend and
// is intended for tests and ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// A single mutex covers saves, reads and eviction, so an eviction can
// never race an in-flight read of the same document.
type DocumentStore struct {
	mu           sync.RWMutex
	maxDocuments int
	documents    map[string]domain.Document
	chunks       map[string][]domain.Chunk
	vocabularies map[string]domain.Vocabulary
}

// NewDocumentStore creates a new in-memory document store holding at
// most maxDocuments resident documents.
func NewDocumentStore(maxDocuments int) *DocumentStore {
	if maxDocuments <= 0 {
		maxDocuments = domain.DefaultConfig().MaxDocuments
	}
	return &DocumentStore{
		maxDocuments: maxDocuments,
		documents:    make(map[string]domain.Document),
		chunks:       make(map[string][]domain.Chunk),
		vocabularies: make(map[string]domain.Vocabulary),
	}
}

// SaveDocument stores the document triple. The three maps are updated
// under one lock, so the triple is atomic with respect to readers.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk, vocab domain.Vocabulary) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.LastAccessedAt = now

	chunksCopy := make([]domain.Chunk, len(chunks))
	copy(chunksCopy, chunks)
	sort.SliceStable(chunksCopy, func(i, j int) bool {
		return chunksCopy[i].Index < chunksCopy[j].Index
	})

	vocabCopy := make(domain.Vocabulary, len(vocab))
	for term, df := range vocab {
		vocabCopy[term] = df
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = stored
	s.chunks[doc.ID] = chunksCopy
	s.vocabularies[doc.ID] = vocabCopy
	return nil
}

// GetDocument retrieves document metadata by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks returns the document's chunks in chunk-index order and
// touches the last-accessed timestamp.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.LastAccessedAt = time.Now().UTC()
	s.documents[documentID] = doc

	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetVocabulary returns the document's term frequencies.
func (s *DocumentStore) GetVocabulary(_ context.Context, documentID string) (domain.Vocabulary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vocab, ok := s.vocabularies[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make(domain.Vocabulary, len(vocab))
	for term, df := range vocab {
		out[term] = df
	}
	return out, nil
}

// ListDocuments returns summaries ordered by last access, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		docs = append(docs, s.documents[id])
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].LastAccessedAt.After(docs[j].LastAccessedAt)
	})

	summaries := make([]domain.DocumentSummary, len(docs))
	for i := range docs {
		summaries[i] = docs[i].Summary()
	}
	return summaries, nil
}

// DeleteDocument removes the document, its chunks and vocabulary.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.vocabularies, id)
	return nil
}

// EnforceDocumentLimit evicts least-recently-accessed documents beyond
// the maximum and returns the evicted IDs.
func (s *DocumentStore) EnforceDocumentLimit(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.documents) - s.maxDocuments
	if excess <= 0 {
		return nil, nil
	}

	docs := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		docs = append(docs, s.documents[id])
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].LastAccessedAt.Before(docs[j].LastAccessedAt)
	})

	evicted := make([]string, 0, excess)
	for _, doc := range docs[:excess] {
		delete(s.documents, doc.ID)
		delete(s.chunks, doc.ID)
		delete(s.vocabularies, doc.ID)
		evicted = append(evicted, doc.ID)
	}
	return evicted, nil
}

// Stats summarises resident documents, chunks and vocabulary terms.
func (s *DocumentStore) Stats(_ context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Stats{TotalDocuments: len(s.documents)}
	for _, chunks := range s.chunks {
		stats.TotalChunks += len(chunks)
	}
	terms := make(map[string]struct{})
	for _, vocab := range s.vocabularies {
		for term := range vocab {
			terms[term] = struct{}{}
		}
	}
	stats.TotalVocabularyTerms = len(terms)
	return stats, nil
}

// Close is a no-op for the in-memory backend.
func (s *DocumentStore) Close() error {
	return nil
}
