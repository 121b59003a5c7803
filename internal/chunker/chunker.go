// Package chunker splits extracted text into semantically bounded,
// retrievable passages with overlap and structural metadata.
package chunker

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lessonforge/docqa/internal/core/domain"
)

// oversizeFactor is how far past the target a segment may go before it
// is split into sentence-accumulated sub-chunks.
const oversizeFactor = 1.5

// minHeadingSegments is the smallest heading segmentation worth
// keeping; below it the chunker falls back to paragraph accumulation.
const minHeadingSegments = 3

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+\S`)
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)

	bulletPattern   = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	numberedPattern = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	codeIndent      = regexp.MustCompile(`(?m)^ {4,}\S`)
	codeBrace       = regexp.MustCompile(`(?m)[{};]\s*$`)

	paragraphBreak = regexp.MustCompile(`\n{2,}`)
)

// abbreviations that end with a period without ending a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {},
	"vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "fig": {}, "no": {},
	"pp": {}, "approx": {}, "dept": {}, "univ": {},
}

// Chunker splits normalised text into chunks. Identical input and
// configuration always produce identical chunk boundaries and metadata.
type Chunker struct {
	targetWords  int
	overlapWords int
	minWords     int
}

// New creates a chunker from the configuration.
func New(cfg domain.Config) *Chunker {
	c := &Chunker{
		targetWords:  cfg.ChunkSize,
		overlapWords: cfg.ChunkOverlap,
		minWords:     cfg.MinChunkSize,
	}
	if c.targetWords <= 0 {
		c.targetWords = domain.DefaultConfig().ChunkSize
	}
	if c.overlapWords < 0 {
		c.overlapWords = 0
	}
	// Overlap must leave room for new content in every sub-chunk.
	if c.overlapWords >= c.targetWords {
		c.overlapWords = c.targetWords / 4
	}
	return c
}

// segment is an intermediate unit between normalised text and chunks.
type segment struct {
	text    string
	start   int // offset into the normalised text
	heading string
}

// Chunk splits text into ordered chunks for the document. Empty or
// pathological input yields zero chunks, not an error.
func (c *Chunker) Chunk(text, documentID string, pageCount int) []domain.Chunk {
	normalised := Normalize(text)
	if normalised == "" {
		return nil
	}
	if pageCount < 1 {
		pageCount = 1
	}

	segments := segmentByHeadings(normalised)
	if len(segments) < minHeadingSegments {
		segments = c.segmentByParagraphs(normalised)
	}

	now := time.Now().UTC()
	var chunks []domain.Chunk
	for _, seg := range segments {
		for _, piece := range c.splitSegment(seg) {
			chunks = append(chunks, domain.Chunk{
				ID:          uuid.New().String(),
				DocumentID:  documentID,
				Text:        piece.text,
				PageNumber:  estimatePage(piece.start, len(normalised), pageCount),
				Index:       len(chunks),
				StartOffset: piece.start,
				EndOffset:   piece.end,
				WordCount:   len(strings.Fields(piece.text)),
				Metadata:    detectMetadata(piece.text, seg.heading),
				CreatedAt:   now,
			})
		}
	}
	return chunks
}

// piece is a chunk body before metadata attachment. start/end bound the
// non-overlap body in the normalised text.
type piece struct {
	text  string
	start int
	end   int
}

// splitSegment emits the segment as one piece when it fits, otherwise
// accumulates sentences into sub-chunks with trailing-word overlap.
func (c *Chunker) splitSegment(seg segment) []piece {
	words := len(strings.Fields(seg.text))
	if words == 0 {
		return nil
	}
	if float64(words) <= oversizeFactor*float64(c.targetWords) {
		return []piece{{text: seg.text, start: seg.start, end: seg.start + len(seg.text)}}
	}

	sentences := splitSentences(seg.text)
	var pieces []piece
	var current []sentence
	currentWords := 0
	overlapText := ""

	flush := func() {
		if len(current) == 0 {
			return
		}
		body := joinSentences(current)
		text := body
		if overlapText != "" {
			text = overlapText + " " + body
		}
		pieces = append(pieces, piece{
			text:  text,
			start: seg.start + current[0].start,
			end:   seg.start + current[len(current)-1].start + len(current[len(current)-1].text),
		})
		overlapText = trailingWords(body, c.overlapWords)
		current = nil
		currentWords = 0
	}

	for _, s := range sentences {
		w := len(strings.Fields(s.text))
		if currentWords > 0 && currentWords+w > c.targetWords {
			flush()
		}
		current = append(current, s)
		currentWords += w
	}
	flush()

	// A trailing fragment below the minimum merges into its
	// predecessor rather than standing alone.
	if n := len(pieces); n > 1 {
		last := pieces[n-1]
		if len(strings.Fields(last.text)) < c.minWords {
			prev := &pieces[n-2]
			prev.text = prev.text + " " + strings.TrimPrefix(last.text, overlapTextPrefix(last.text, prev.text, c.overlapWords))
			prev.end = last.end
			pieces = pieces[:n-1]
		}
	}
	return pieces
}

// overlapTextPrefix returns the overlap prefix that was carried into
// next from prev, so merging does not duplicate it.
func overlapTextPrefix(next, prev string, overlap int) string {
	p := trailingWords(prev, overlap)
	if p != "" && strings.HasPrefix(next, p+" ") {
		return p + " "
	}
	return ""
}

// trailingWords returns the last n words of s.
func trailingWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[len(fields)-n:]
	}
	return strings.Join(fields, " ")
}

// sentence carries a sentence and its offset within the segment.
type sentence struct {
	text  string
	start int
}

func joinSentences(ss []sentence) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

// splitSentences splits on terminal punctuation followed by space,
// honouring the abbreviation list to avoid false boundaries. Paragraph
// breaks always terminate a sentence.
func splitSentences(text string) []sentence {
	var out []sentence
	start := 0
	flush := func(end int) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := len(raw) - len(strings.TrimLeft(raw, " \t\n"))
			out = append(out, sentence{
				text:  trimmed,
				start: start + lead,
			})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			flush(i)
			continue
		}
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\n' {
			continue
		}
		if c == '.' && isAbbreviation(text[:i]) {
			continue
		}
		flush(i + 1)
	}
	flush(len(text))
	return out
}

// isAbbreviation reports whether the text ends in a known abbreviation
// or a single-letter initial.
func isAbbreviation(prefix string) bool {
	j := len(prefix)
	for j > 0 && prefix[j-1] != ' ' && prefix[j-1] != '\n' {
		j--
	}
	word := strings.ToLower(strings.TrimSuffix(prefix[j:], "."))
	word = strings.TrimSuffix(word, ".") // "e.g." arrives as "e.g"
	if len(word) == 1 && word[0] >= 'a' && word[0] <= 'z' {
		return true
	}
	_, ok := abbreviations[word]
	return ok
}

// segmentByHeadings splits on heading lines. The heading line stays
// with the body that follows it.
func segmentByHeadings(text string) []segment {
	var segments []segment
	var cur strings.Builder
	curStart := 0
	curHeading := ""

	flush := func() {
		body := strings.TrimSpace(cur.String())
		if body != "" {
			segments = append(segments, segment{text: body, start: curStart, heading: curHeading})
		}
		cur.Reset()
	}

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isHeadingLine(trimmed) {
			flush()
			curStart = offset
			curHeading = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		} else if cur.Len() == 0 && strings.TrimSpace(line) != "" && curHeading == "" {
			curStart = offset
		}
		cur.WriteString(line)
		offset += len(line)
	}
	flush()
	return segments
}

// isHeadingLine detects ALL-CAPS lines, numbered headings, and
// markdown-style markers.
func isHeadingLine(line string) bool {
	if line == "" || len(line) > 100 {
		return false
	}
	if markdownHeading.MatchString(line) {
		return true
	}
	if numberedHeading.MatchString(line) && len(strings.Fields(line)) <= 12 {
		return true
	}
	return isAllCaps(line)
}

func isAllCaps(line string) bool {
	letters := 0
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			letters++
		}
	}
	return letters >= 3
}

// segmentByParagraphs accumulates paragraphs until each segment reaches
// the target word count.
func (c *Chunker) segmentByParagraphs(text string) []segment {
	var segments []segment
	var cur strings.Builder
	curStart := -1
	curWords := 0

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		segments = append(segments, segment{text: cur.String(), start: curStart})
		cur.Reset()
		curStart = -1
		curWords = 0
	}

	for _, loc := range splitWithOffsets(text, paragraphBreak) {
		para := text[loc[0]:loc[1]]
		if strings.TrimSpace(para) == "" {
			continue
		}
		if curStart < 0 {
			curStart = loc[0]
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
		curWords += len(strings.Fields(para))
		if curWords >= c.targetWords {
			flush()
		}
	}
	flush()
	return segments
}

// splitWithOffsets returns [start,end) offsets of the parts of text
// delimited by sep matches.
func splitWithOffsets(text string, sep *regexp.Regexp) [][2]int {
	var parts [][2]int
	prev := 0
	for _, m := range sep.FindAllStringIndex(text, -1) {
		if m[0] > prev {
			parts = append(parts, [2]int{prev, m[0]})
		}
		prev = m[1]
	}
	if prev < len(text) {
		parts = append(parts, [2]int{prev, len(text)})
	}
	return parts
}

// estimatePage interpolates the chunk's start offset over the text
// length, clamped to [1, totalPages].
func estimatePage(start, textLen, totalPages int) int {
	if textLen <= 0 || totalPages <= 1 {
		return 1
	}
	page := int(float64(start)/float64(textLen)*float64(totalPages)) + 1
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page
}

// detectMetadata attaches structural signals via pattern matching.
func detectMetadata(text, heading string) domain.ChunkMetadata {
	md := domain.ChunkMetadata{
		HasBulletPoints: bulletPattern.MatchString(text),
		HasNumberedList: numberedPattern.MatchString(text),
		HasCode:         strings.Contains(text, "```") || codeIndent.MatchString(text) || codeBrace.MatchString(text),
	}
	if heading != "" {
		md.HasHeading = true
		md.Heading = heading
		md.Section = heading
	}
	return md
}
