package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lessonforge/docqa/internal/chunker"
	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
	"github.com/lessonforge/docqa/internal/core/ports/driving"
	"github.com/lessonforge/docqa/internal/extractor"
	"github.com/lessonforge/docqa/internal/logger"
	"github.com/lessonforge/docqa/internal/search"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: extract, chunk, index,
// persist, enforce the resident-document limit.
type IngestService struct {
	store   driven.DocumentStore
	chunker *chunker.Chunker
	engine  *search.Engine
	ocr     driven.OCRService // optional
	cfg     domain.Config

	// Indexing a document is one logical unit of work; writes for the
	// same document id never interleave.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIngestService creates an ingest service. The OCR service is
// optional (can be nil); without it, scan ingestion is disabled.
func NewIngestService(
	store driven.DocumentStore,
	ch *chunker.Chunker,
	engine *search.Engine,
	ocr driven.OCRService,
	cfg domain.Config,
) *IngestService {
	return &IngestService{
		store:   store,
		chunker: ch,
		engine:  engine,
		ocr:     ocr,
		cfg:     cfg,
		locks:   make(map[string]*sync.Mutex),
	}
}

// docLock returns the per-document write lock.
func (s *IngestService) docLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// IngestBytes extracts text from a binary payload and indexes it.
// Quality-gate failures return a *domain.ExtractionError so callers
// can route the source to OCR or pasted text.
func (s *IngestService) IngestBytes(ctx context.Context, name string, payload []byte, pageCount int) (*domain.Document, error) {
	logger.Section("Ingest")
	logger.Debug("document %q: %d payload bytes, %d pages", name, len(payload), pageCount)

	text, diag, err := extractor.Extract(payload)
	if err != nil {
		logger.Warn("extraction failed for %q: %v", name, err)
		return nil, err
	}
	logger.Debug("extracted %d chars (%d/%d streams)", diag.Characters, diag.StreamsDecoded, diag.StreamsFound)

	return s.index(ctx, name, text, pageCount)
}

// IngestText ingests already-extracted or pasted text.
func (s *IngestService) IngestText(ctx context.Context, name, text string, pageCount int) (*domain.Document, error) {
	logger.Section("Ingest")
	logger.Debug("document %q: %d chars of text, %d pages", name, len(text), pageCount)
	return s.index(ctx, name, text, pageCount)
}

// IngestScan routes a page image through the OCR collaborator and
// ingests the recognised text.
func (s *IngestService) IngestScan(ctx context.Context, name string, image []byte, pageCount int) (*domain.Document, error) {
	if s.ocr == nil {
		return nil, domain.ErrOCRUnavailable
	}
	text, err := s.ocr.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("recognizing scan: %w", err)
	}
	return s.IngestText(ctx, name, text, pageCount)
}

// index chunks the text, builds the vocabulary, and persists the
// triple atomically under the per-document lock.
func (s *IngestService) index(ctx context.Context, name, text string, pageCount int) (*domain.Document, error) {
	if pageCount < 1 {
		pageCount = 1
	}
	docID := uuid.New().String()

	lock := s.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	chunks := s.chunker.Chunk(text, docID, pageCount)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	idx := s.engine.BuildIndex(chunks)
	logger.Debug("indexed %d chunks, %d vocabulary terms", len(chunks), len(idx.Vocabulary))

	totalWords := 0
	for _, c := range chunks {
		totalWords += c.WordCount
	}

	doc := &domain.Document{
		ID:             docID,
		Name:           name,
		TotalChunks:    len(chunks),
		TotalWords:     totalWords,
		PageCount:      pageCount,
		AvgChunkLength: idx.AvgChunkLength,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.SaveDocument(ctx, doc, chunks, idx.Vocabulary); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	evicted, err := s.store.EnforceDocumentLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("enforcing document limit: %w", err)
	}
	for _, id := range evicted {
		logger.Info("evicted least-recently-accessed document %s", id)
	}

	return doc, nil
}

// Reindex re-chunks stored text for a document id, replacing its chunk
// set wholesale. Used when chunking configuration changes.
func (s *IngestService) Reindex(ctx context.Context, documentID, text string, pageCount int) (*domain.Document, error) {
	existing, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	chunks := s.chunker.Chunk(text, documentID, pageCount)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	idx := s.engine.BuildIndex(chunks)

	totalWords := 0
	for _, c := range chunks {
		totalWords += c.WordCount
	}

	doc := &domain.Document{
		ID:             documentID,
		Name:           existing.Name,
		TotalChunks:    len(chunks),
		TotalWords:     totalWords,
		PageCount:      pageCount,
		AvgChunkLength: idx.AvgChunkLength,
		CreatedAt:      existing.CreatedAt,
	}
	if err := s.store.SaveDocument(ctx, doc, chunks, idx.Vocabulary); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	return doc, nil
}
