package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/docqa/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, 10)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func mkDoc(id string) *domain.Document {
	return &domain.Document{
		ID:             id,
		Name:           id + ".pdf",
		TotalChunks:    2,
		TotalWords:     20,
		PageCount:      3,
		AvgChunkLength: 10,
	}
}

func mkChunks(docID string) []domain.Chunk {
	return []domain.Chunk{
		{
			ID: docID + "-c0", DocumentID: docID, Text: "first chunk body",
			Index: 0, PageNumber: 1, StartOffset: 0, EndOffset: 16, WordCount: 3,
			Metadata: domain.ChunkMetadata{HasHeading: true, Heading: "Intro", Section: "Intro"},
		},
		{
			ID: docID + "-c1", DocumentID: docID, Text: "second chunk body",
			Index: 1, PageNumber: 2, StartOffset: 16, EndOffset: 33, WordCount: 3,
			Metadata: domain.ChunkMetadata{HasBulletPoints: true},
		},
	}
}

func mkVocab() domain.Vocabulary {
	return domain.Vocabulary{"first": 1, "second": 1, "chunk": 2, "body": 2}
}

func TestStore_NewStore_CreatesDatabase(t *testing.T) {
	store, dir := newTestStore(t)
	assert.Equal(t, filepath.Join(dir, "documents.db"), store.Path())
}

func TestStore_SaveAndGetDocument(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "doc-1.pdf", doc.Name)
	assert.Equal(t, 2, doc.TotalChunks)
	assert.Equal(t, 20, doc.TotalWords)
	assert.Equal(t, 3, doc.PageCount)
	assert.InDelta(t, 10.0, doc.AvgChunkLength, 1e-9)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestStore_SaveDocument_Invalid(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveDocument(ctx, nil, nil, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(ctx, &domain.Document{}, nil, nil), domain.ErrInvalidInput)
}

func TestStore_GetChunks_RoundTripWithMetadata(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "first chunk body", chunks[0].Text)
	assert.True(t, chunks[0].Metadata.HasHeading)
	assert.Equal(t, "Intro", chunks[0].Metadata.Heading)
	assert.Equal(t, 1, chunks[1].Index)
	assert.True(t, chunks[1].Metadata.HasBulletPoints)
	assert.Equal(t, 16, chunks[1].StartOffset)
	assert.Equal(t, 33, chunks[1].EndOffset)
}

func TestStore_GetVocabulary(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))

	vocab, err := store.GetVocabulary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, mkVocab(), vocab)
}

func TestStore_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetChunks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetVocabulary(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.DeleteDocument(ctx, "missing"), domain.ErrNotFound)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, 10)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, 10)
	require.NoError(t, err)
	defer reopened.Close()

	doc, err := reopened.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.pdf", doc.Name)

	chunks, err := reopened.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	vocab, err := reopened.GetVocabulary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, mkVocab(), vocab)
}

func TestStore_SaveReplacesChunksAndVocabulary(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))
	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1")[:1],
		domain.Vocabulary{"only": 1}))

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)

	vocab, err := store.GetVocabulary(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Vocabulary{"only": 1}, vocab)
}

func TestStore_DeleteCascades(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Orphaned rows must not survive the cascade.
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDocuments)
	assert.Zero(t, stats.TotalChunks)
	assert.Zero(t, stats.TotalVocabularyTerms)
}

func TestStore_GetChunks_TouchesLastAccessed(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))
	before, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)

	after, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, after.LastAccessedAt.After(before.LastAccessedAt))
}

func TestStore_ListDocuments_MostRecentFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		require.NoError(t, store.SaveDocument(ctx, mkDoc(id), mkChunks(id), mkVocab()))
		time.Sleep(5 * time.Millisecond)
	}

	_, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)

	summaries, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "doc-1", summaries[0].ID)
	assert.Equal(t, "doc-3", summaries[1].ID)
	assert.Equal(t, "doc-2", summaries[2].ID)
	assert.Equal(t, 20, summaries[0].Size)
}

func TestStore_EnforceDocumentLimit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 3)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("doc-%d", i)
		require.NoError(t, store.SaveDocument(ctx, mkDoc(id), mkChunks(id), mkVocab()))
		time.Sleep(5 * time.Millisecond)
	}

	_, err = store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)

	evicted, err := store.EnforceDocumentLimit(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-2", "doc-3"}, evicted)

	_, err = store.GetDocument(ctx, "doc-1")
	assert.NoError(t, err)
	_, err = store.GetDocument(ctx, "doc-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	evicted, err = store.EnforceDocumentLimit(ctx)
	require.NoError(t, err)
	assert.Empty(t, evicted)
}

func TestStore_Stats(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-1"), mkChunks("doc-1"), mkVocab()))
	require.NoError(t, store.SaveDocument(ctx, mkDoc("doc-2"), mkChunks("doc-2"),
		domain.Vocabulary{"chunk": 1, "extra": 1}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 4, stats.TotalChunks)
	// "chunk" appears in both vocabularies but counts once.
	assert.Equal(t, 5, stats.TotalVocabularyTerms)
}
