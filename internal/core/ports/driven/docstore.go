package driven

import (
	"context"

	"github.com/lessonforge/docqa/internal/core/domain"
)

// DocumentStore persists documents, chunks and vocabularies.
// Two interchangeable backends exist: a durable SQLite one and a
// volatile in-memory one. The caller picks the backend at construction;
// the core never selects by runtime environment.
//
// A document, its chunks and its vocabulary form one atomic triple:
// saves and deletes are all-or-nothing, and chunks are only ever
// replaced wholesale on re-index.
type DocumentStore interface {
	// SaveDocument persists the triple atomically. A partial failure
	// leaves the prior state intact.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vocab domain.Vocabulary) error

	// GetDocument retrieves document metadata by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns the document's chunks ordered by chunk index
	// and touches the document's last-accessed timestamp.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetVocabulary returns the document's term frequencies.
	GetVocabulary(ctx context.Context, documentID string) (domain.Vocabulary, error)

	// ListDocuments returns summaries ordered by last access, newest
	// first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// DeleteDocument removes the document, its chunks and vocabulary.
	DeleteDocument(ctx context.Context, id string) error

	// EnforceDocumentLimit evicts least-recently-accessed documents
	// until the resident count is within the configured maximum. It
	// returns the IDs of evicted documents. Runs after every save.
	EnforceDocumentLimit(ctx context.Context) ([]string, error)

	// Stats summarises resident documents, chunks and vocabulary terms.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Close releases backend resources.
	Close() error
}
