package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/docqa/internal/adapters/driven/storage/memory"
	"github.com/lessonforge/docqa/internal/chunker"
	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
	"github.com/lessonforge/docqa/internal/search"
)

// mockOCR returns canned text for any image.
type mockOCR struct {
	text string
	err  error
}

func (m *mockOCR) Recognize(context.Context, []byte) (string, error) {
	return m.text, m.err
}

func newTestIngest(store driven.DocumentStore) *IngestService {
	cfg := domain.DefaultConfig()
	return NewIngestService(store, chunker.New(cfg), search.NewEngine(cfg), nil, cfg)
}

// sampleText builds a plausible multi-paragraph document body.
func sampleText(paragraphs int) string {
	var b strings.Builder
	for i := 0; i < paragraphs; i++ {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Paragraph %d discusses photosynthesis and cellular respiration. ", i)
		b.WriteString("Plants capture sunlight with chlorophyll and store the energy as glucose. ")
		b.WriteString("Mitochondria later release that energy through oxidative phosphorylation.")
	}
	return b.String()
}

func TestIngestText_Pipeline(t *testing.T) {
	store := memory.NewDocumentStore(10)
	svc := newTestIngest(store)
	ctx := context.Background()

	doc, err := svc.IngestText(ctx, "notes.txt", sampleText(12), 4)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, 4, doc.PageCount)
	assert.Greater(t, doc.TotalChunks, 0)
	assert.Greater(t, doc.TotalWords, 0)
	assert.Greater(t, doc.AvgChunkLength, 0.0)

	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, doc.TotalChunks)

	vocab, err := store.GetVocabulary(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, vocab, "photosynthesis")
	assert.Contains(t, vocab, "glucose")
}

func TestIngestText_EmptyDocument(t *testing.T) {
	svc := newTestIngest(memory.NewDocumentStore(10))
	ctx := context.Background()

	_, err := svc.IngestText(ctx, "empty.txt", "   \n\n ", 1)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestIngestBytes_RawPayload(t *testing.T) {
	store := memory.NewDocumentStore(10)
	svc := newTestIngest(store)
	ctx := context.Background()

	// Printable text embedded between binary bytes; the extractor's
	// raw scan recovers it.
	payload := []byte("\x00\x01" + sampleText(3) + "\x02")

	doc, err := svc.IngestBytes(ctx, "scan.bin", payload, 2)
	require.NoError(t, err)
	assert.Greater(t, doc.TotalChunks, 0)

	vocab, err := store.GetVocabulary(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, vocab, "photosynthesis")
}

func TestIngestBytes_ExtractionFailure(t *testing.T) {
	store := memory.NewDocumentStore(10)
	svc := newTestIngest(store)
	ctx := context.Background()

	_, err := svc.IngestBytes(ctx, "junk.bin", []byte("tiny"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	var extractionErr *domain.ExtractionError
	assert.True(t, errors.As(err, &extractionErr))

	// Nothing may be persisted for a failed ingest.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
}

func TestIngestScan_WithoutOCR(t *testing.T) {
	svc := newTestIngest(memory.NewDocumentStore(10))

	_, err := svc.IngestScan(context.Background(), "page.png", []byte{0x89}, 1)
	assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
}

func TestIngestScan_WithOCR(t *testing.T) {
	cfg := domain.DefaultConfig()
	store := memory.NewDocumentStore(10)
	ocr := &mockOCR{text: sampleText(3)}
	svc := NewIngestService(store, chunker.New(cfg), search.NewEngine(cfg), ocr, cfg)

	doc, err := svc.IngestScan(context.Background(), "page.png", []byte{0x89}, 2)
	require.NoError(t, err)
	assert.Greater(t, doc.TotalChunks, 0)
	assert.Equal(t, "page.png", doc.Name)
}

func TestIngestScan_OCRError(t *testing.T) {
	cfg := domain.DefaultConfig()
	ocr := &mockOCR{err: errors.New("recognizer offline")}
	svc := NewIngestService(memory.NewDocumentStore(10), chunker.New(cfg), search.NewEngine(cfg), ocr, cfg)

	_, err := svc.IngestScan(context.Background(), "page.png", []byte{0x89}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recognizer offline")
}

func TestIngest_EnforcesResidentLimit(t *testing.T) {
	store := memory.NewDocumentStore(2)
	svc := newTestIngest(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.IngestText(ctx, fmt.Sprintf("doc-%d.txt", i), sampleText(3), 1)
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
}

func TestReindex_ReplacesChunks(t *testing.T) {
	store := memory.NewDocumentStore(10)
	svc := newTestIngest(store)
	ctx := context.Background()

	doc, err := svc.IngestText(ctx, "notes.txt", sampleText(12), 4)
	require.NoError(t, err)

	updated, err := svc.Reindex(ctx, doc.ID, sampleText(3), 2)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, updated.ID)
	assert.Equal(t, doc.Name, updated.Name)
	assert.Equal(t, doc.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 2, updated.PageCount)
	assert.Less(t, updated.TotalChunks, doc.TotalChunks)

	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, updated.TotalChunks)
}

func TestReindex_UnknownDocument(t *testing.T) {
	svc := newTestIngest(memory.NewDocumentStore(10))

	_, err := svc.Reindex(context.Background(), "missing", sampleText(3), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
