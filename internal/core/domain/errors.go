package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFailed indicates the binary payload could not be
	// decoded into usable text. Callers should route the source to the
	// OCR fallback or ask for pasted text.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmptyDocument indicates chunking produced no chunks, so there
	// is nothing to index or persist.
	ErrEmptyDocument = errors.New("document produced no chunks")

	// ErrNoRelevantContext indicates no chunk scored above the minimum
	// and no fallback applied; the caller must not invoke generation.
	ErrNoRelevantContext = errors.New("no relevant context")

	// ErrGeneratorUnavailable indicates no generation collaborator is
	// configured. Answering is disabled; search still works.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrOCRUnavailable indicates no OCR collaborator is configured.
	ErrOCRUnavailable = errors.New("OCR service unavailable")
)

// ExtractionDiagnostics records what the extractor saw, so the
// orchestration layer can choose a fallback route.
type ExtractionDiagnostics struct {
	// Characters is the length of the extracted text.
	Characters int

	// StreamsFound is the number of delimited content streams located.
	StreamsFound int

	// StreamsDecoded is how many of those decompressed successfully.
	StreamsDecoded int

	// StructuralPatternHits counts structural-syntax patterns matched
	// in the leading window of the output.
	StructuralPatternHits int

	// LetterRatio is the fraction of letters in the leading window.
	LetterRatio float64
}

// ExtractionError is returned when extraction fails the quality gate.
// It unwraps to ErrExtractionFailed.
type ExtractionError struct {
	Reason      string
	Diagnostics ExtractionDiagnostics
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed: %s (%d chars, %d/%d streams decoded, %d pattern hits, letter ratio %.2f)",
		e.Reason, e.Diagnostics.Characters, e.Diagnostics.StreamsDecoded,
		e.Diagnostics.StreamsFound, e.Diagnostics.StructuralPatternHits,
		e.Diagnostics.LetterRatio)
}

// Unwrap lets errors.Is match ErrExtractionFailed.
func (e *ExtractionError) Unwrap() error {
	return ErrExtractionFailed
}
