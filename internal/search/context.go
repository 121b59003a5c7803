package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/logger"
)

// tokensPerChar is the estimation divisor: roughly one model token per
// four characters of English text.
const tokensPerChar = 4

// estimateTokens approximates the model token count of s.
func estimateTokens(s string) int {
	return len(s) / tokensPerChar
}

// BuildContext assembles the results into a single context string,
// grouped by page ascending, bounded by MaxContextTokens. The budget
// check runs before appending each chunk, so the output may exceed the
// budget by at most one chunk. An empty string means the caller has no
// relevant context and must not invoke generation.
func (e *Engine) BuildContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	ordered := make([]domain.SearchResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Chunk.PageNumber < ordered[j].Chunk.PageNumber
	})

	var out strings.Builder
	tokens := 0
	lastPage := -1
	for _, r := range ordered {
		if tokens >= e.cfg.MaxContextTokens {
			logger.Debug("context budget reached at %d tokens, dropping remaining chunks", tokens)
			break
		}

		var piece strings.Builder
		if out.Len() > 0 {
			piece.WriteString("\n\n")
		}
		if e.cfg.IncludePageNumbers && r.Chunk.PageNumber != lastPage {
			fmt.Fprintf(&piece, "[Page %d]\n", r.Chunk.PageNumber)
		}
		piece.WriteString(r.Chunk.Text)

		out.WriteString(piece.String())
		tokens += estimateTokens(piece.String())
		lastPage = r.Chunk.PageNumber
	}

	logger.Debug("assembled context: ~%d tokens from %d results", tokens, len(ordered))
	return out.String()
}
