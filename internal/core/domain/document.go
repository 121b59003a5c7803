package domain

import "time"

// Document represents an ingested document with aggregate statistics.
// The full text is not retained; chunks hold the retrievable content.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable name (usually the source file name).
	Name string

	// TotalChunks is the number of chunks produced at ingest time.
	TotalChunks int

	// TotalWords is the word count across all chunks.
	TotalWords int

	// PageCount is the estimated number of pages in the source.
	PageCount int

	// AvgChunkLength is the mean chunk length in words. It feeds BM25
	// length normalisation at query time.
	AvgChunkLength float64

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// LastAccessedAt is when the document's chunks were last read.
	// Eviction removes the least recently accessed document first.
	LastAccessedAt time.Time
}

// DocumentSummary is the listing view of a document.
type DocumentSummary struct {
	ID          string
	Name        string
	PageCount   int
	Size        int // total words
	ProcessedAt time.Time
}

// Summary returns the listing view of the document.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Name:        d.Name,
		PageCount:   d.PageCount,
		Size:        d.TotalWords,
		ProcessedAt: d.CreatedAt,
	}
}

// Chunk is a bounded, independently retrievable passage of a document.
// Chunks are immutable once created; re-indexing a document replaces
// its chunk set wholesale.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the passage content.
	Text string

	// PageNumber is the estimated page this chunk starts on (1-based).
	PageNumber int

	// Index is the ordinal position within the document.
	Index int

	// StartOffset and EndOffset locate the chunk body in the
	// normalised source text. StartOffset < EndOffset always holds.
	StartOffset int
	EndOffset   int

	// WordCount is the number of words in Text.
	WordCount int

	// Metadata carries structural signals detected at chunking time.
	Metadata ChunkMetadata

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}

// ChunkMetadata describes structural features of a chunk.
type ChunkMetadata struct {
	HasHeading      bool   `json:"has_heading"`
	HasBulletPoints bool   `json:"has_bullet_points"`
	HasNumberedList bool   `json:"has_numbered_list"`
	HasCode         bool   `json:"has_code"`
	Heading         string `json:"heading,omitempty"`
	Section         string `json:"section,omitempty"`
}

// Vocabulary maps each term to the number of chunks containing it
// within a single document. Document frequency never exceeds the
// document's chunk count.
type Vocabulary map[string]int

// Stats summarises the resident contents of a document store.
type Stats struct {
	TotalDocuments       int
	TotalChunks          int
	TotalVocabularyTerms int
}
