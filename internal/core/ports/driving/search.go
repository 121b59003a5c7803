package driving

import (
	"context"

	"github.com/lessonforge/docqa/internal/core/domain"
)

// Searcher answers queries over a single ingested document.
type Searcher interface {
	// Search returns the top ranked passages for the query.
	Search(ctx context.Context, documentID, query string) ([]domain.SearchResult, error)

	// Context assembles a token-budgeted context string from the top
	// results. Returns domain.ErrNoRelevantContext when nothing
	// matches.
	Context(ctx context.Context, documentID, query string) (string, []domain.SearchResult, error)

	// Answer runs Search, assembles the context and prompts the
	// generation collaborator.
	Answer(ctx context.Context, documentID, question string) (string, error)
}
