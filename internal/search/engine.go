// Package search ranks document chunks against a query with BM25 over
// a per-document lexical index, and assembles a token-budgeted context
// for downstream answer generation.
package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/logger"
)

// overviewPatterns recognise "what is this document about" style
// queries, which short-circuit ranking and return opening passages.
var overviewPatterns = []*regexp.Regexp{
	regexp.MustCompile(`what('s| is) (this|the) (document|text|file|book|paper|chapter)`),
	regexp.MustCompile(`\bsummar(y|ise|ize)\b`),
	regexp.MustCompile(`\boverview\b`),
	regexp.MustCompile(`\bmain (idea|topic|point|theme)s?\b`),
	regexp.MustCompile(`^tell me about (this|the)`),
}

// overviewResultLimit caps the short-circuit result set.
const overviewResultLimit = 3

// overviewBaseScore is the synthetic score of the first overview
// result; subsequent results descend from it.
const overviewBaseScore = 10.0

// overviewMaxPage bounds the pages overview results may come from.
const overviewMaxPage = 2

// Rerank boosts applied on top of BM25 scores.
const (
	headingWordBoost   = 0.5
	exactQueryBoost    = 2.0
	earlyChunkBoost    = 0.3
	earlyChunkCount    = 3
	unmatchedFallback  = "no query terms matched the document vocabulary"
	overviewExplainFmt = "overview query: introductory passage from page %d"
)

// Engine ranks chunks and assembles context. It is a pure computation
// over already-persisted data and is safe for concurrent use.
type Engine struct {
	cfg       domain.Config
	stopwords map[string]struct{}
	synonyms  map[string][]string
}

// Option configures the engine.
type Option func(*Engine)

// WithStopwords replaces the default stopword set.
func WithStopwords(words []string) Option {
	return func(e *Engine) {
		e.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			e.stopwords[w] = struct{}{}
		}
	}
}

// WithSynonyms replaces the default synonym table.
func WithSynonyms(table map[string][]string) Option {
	return func(e *Engine) {
		e.synonyms = table
	}
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg domain.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	WithStopwords(DefaultStopwords())(e)
	WithSynonyms(DefaultSynonyms())(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search ranks the chunks against the query and returns at most TopK
// results, all scoring above MinScore unless they are fallback results.
func (e *Engine) Search(query string, chunks []domain.Chunk, idx *Index) []domain.SearchResult {
	logger.Section("Search")
	logger.Debug("query: %q over %d chunks", query, len(chunks))

	query = strings.TrimSpace(query)
	if query == "" || len(chunks) == 0 {
		return nil
	}

	if isOverviewQuery(query) {
		logger.Debug("overview query detected, skipping ranking")
		return e.overviewResults(chunks)
	}

	expanded := e.expand(e.tokenize(query))
	logger.Debug("expanded query terms: %v", expanded)
	if len(expanded) == 0 {
		logger.Debug("no usable query terms, returning first-chunk fallback")
		return e.fallbackResults(chunks)
	}

	results := e.rank(expanded, chunks, idx)
	logger.Debug("%d chunks above min score %.2f", len(results), e.cfg.MinScore)

	if e.cfg.Rerank {
		e.rerank(query, results)
	}

	if len(results) > e.cfg.TopK {
		results = results[:e.cfg.TopK]
	}
	return results
}

// rank computes BM25 scores and keeps chunks above the minimum,
// sorted descending. Ties preserve chunk order.
func (e *Engine) rank(terms []string, chunks []domain.Chunk, idx *Index) []domain.SearchResult {
	var results []domain.SearchResult
	for _, c := range chunks {
		score, matched := e.bm25(terms, c, idx)
		if score <= e.cfg.MinScore {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk:        c,
			Score:        score,
			MatchedTerms: matched,
			Explanation:  fmt.Sprintf("BM25 match on: %s", strings.Join(matched, ", ")),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// bm25 scores a single chunk over the expanded query terms.
// Term-frequency saturation is controlled by k1 and chunk-length
// normalisation by b.
func (e *Engine) bm25(terms []string, c domain.Chunk, idx *Index) (float64, []string) {
	tf := make(map[string]int)
	for _, t := range e.tokenize(c.Text) {
		tf[t]++
	}

	chunkLen := float64(c.WordCount)
	avg := idx.AvgChunkLength
	if avg <= 0 {
		avg = 1
	}

	k1, b := e.cfg.BM25K1, e.cfg.BM25B
	score := 0.0
	var matched []string
	for _, term := range terms {
		idf := idx.IDF[term]
		f := float64(tf[term])
		if idf == 0 || f == 0 {
			continue
		}
		score += idf * (f * (k1 + 1)) / (f + k1*(1-b+b*chunkLen/avg))
		matched = append(matched, term)
	}
	return score, matched
}

// rerank applies heuristic boosts and re-sorts: heading word matches,
// the full query appearing verbatim, and early-document position.
func (e *Engine) rerank(query string, results []domain.SearchResult) {
	queryLower := strings.ToLower(query)
	queryWords := strings.Fields(queryLower)

	for i := range results {
		r := &results[i]
		if heading := strings.ToLower(r.Chunk.Metadata.Heading); heading != "" {
			for _, w := range queryWords {
				if strings.Contains(heading, w) {
					r.Score += headingWordBoost
				}
			}
		}
		if strings.Contains(strings.ToLower(r.Chunk.Text), queryLower) {
			r.Score += exactQueryBoost
		}
		if r.Chunk.Index < earlyChunkCount {
			r.Score += earlyChunkBoost
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// overviewResults returns up to three chunks from the first two pages
// with descending synthetic scores.
func (e *Engine) overviewResults(chunks []domain.Chunk) []domain.SearchResult {
	var results []domain.SearchResult
	for _, c := range chunks {
		if c.PageNumber > overviewMaxPage {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk:       c,
			Score:       overviewBaseScore - float64(len(results)),
			Explanation: fmt.Sprintf(overviewExplainFmt, c.PageNumber),
		})
		if len(results) == overviewResultLimit {
			break
		}
	}
	return results
}

// fallbackResults returns the first TopK chunks tagged as unmatched,
// for queries whose expansion yields no usable terms.
func (e *Engine) fallbackResults(chunks []domain.Chunk) []domain.SearchResult {
	n := e.cfg.TopK
	if n > len(chunks) {
		n = len(chunks)
	}
	results := make([]domain.SearchResult, 0, n)
	for _, c := range chunks[:n] {
		results = append(results, domain.SearchResult{
			Chunk:       c,
			Explanation: unmatchedFallback,
			Fallback:    true,
		})
	}
	return results
}

// isOverviewQuery matches the fixed overview pattern set.
func isOverviewQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range overviewPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}
