package driving

import (
	"context"

	"github.com/lessonforge/docqa/internal/core/domain"
)

// Ingestor turns source material into indexed, persisted documents.
type Ingestor interface {
	// IngestBytes extracts text from a binary payload, chunks and
	// indexes it, and persists the result. Extraction quality failures
	// return a *domain.ExtractionError so callers can route to OCR or
	// pasted text.
	IngestBytes(ctx context.Context, name string, payload []byte, pageCount int) (*domain.Document, error)

	// IngestText ingests already-extracted or pasted text.
	IngestText(ctx context.Context, name, text string, pageCount int) (*domain.Document, error)

	// IngestScan recognises a page image through the OCR collaborator
	// and ingests the recognised text.
	IngestScan(ctx context.Context, name string, image []byte, pageCount int) (*domain.Document, error)
}
