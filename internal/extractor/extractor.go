// Package extractor decodes binary document payloads into plain text.
//
// It is a best-effort scanner, not a conforming parser: it locates
// compressed content streams by their delimiters, inflates them, and
// pulls string arguments out of text-showing operators. Producer
// specific font encodings are out of scope; when the output fails the
// quality gate the extractor fails loudly so callers can route the
// source to OCR or pasted text.
package extractor

import (
	"bytes"
	"compress/zlib"
	"io"
	"regexp"
	"strings"

	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/logger"
)

const (
	// minOutputLength is the shortest output accepted by the quality gate.
	minOutputLength = 50

	// qualityWindow is how much of the output the gate inspects.
	qualityWindow = 500
)

var (
	streamStart = []byte("stream")
	streamEnd   = []byte("endstream")

	beginText = []byte("BT")
	endText   = []byte("ET")
)

// structuralPatterns match document-syntax residue that indicates the
// output is operator soup rather than readable text.
var structuralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+ 0 obj`),
	regexp.MustCompile(`endobj`),
	regexp.MustCompile(`<<\s*/`),
	regexp.MustCompile(`/[A-Z][A-Za-z]+`),
	regexp.MustCompile(`\bxref\b`),
	regexp.MustCompile(`\b(?:Tf|Td|Tm|TJ|Tj)\b`),
}

var (
	letterRun  = regexp.MustCompile(`[A-Za-z]{4}`)
	wordInRun  = regexp.MustCompile(`[A-Za-z]{3}`)
	whitespace = regexp.MustCompile(`[ \t]+`)
)

// reservedKeywords are structural tokens the raw-scan fallback skips.
var reservedKeywords = map[string]struct{}{
	"obj": {}, "endobj": {}, "stream": {}, "endstream": {},
	"xref": {}, "startxref": {}, "trailer": {}, "null": {},
	"true": {}, "false": {}, "R": {},
}

// Extract decodes the payload into text. On failure it returns a
// *domain.ExtractionError carrying diagnostics, and the partial text
// extracted so far.
func Extract(payload []byte) (string, domain.ExtractionDiagnostics, error) {
	var diag domain.ExtractionDiagnostics

	var out strings.Builder
	for _, region := range findStreams(payload) {
		diag.StreamsFound++

		if data, err := inflate(region); err == nil {
			diag.StreamsDecoded++
			out.WriteString(scanTextOperators(data))
		} else {
			// Some producers store content uncompressed.
			out.WriteString(scanTextOperators(region))
		}
	}

	text := tidy(out.String())
	if text == "" {
		logger.Debug("no stream yielded text, falling back to raw scan (%d streams)", diag.StreamsFound)
		text = tidy(scanPrintableRuns(payload))
	}

	diag.Characters = len(text)
	fillQualitySignals(text, &diag)

	if reason, ok := failsQualityGate(text, diag); ok {
		logger.Warn("extraction quality gate failed: %s", reason)
		return text, diag, &domain.ExtractionError{Reason: reason, Diagnostics: diag}
	}

	logger.Debug("extracted %d chars from %d/%d streams", diag.Characters, diag.StreamsDecoded, diag.StreamsFound)
	return text, diag, nil
}

// findStreams returns the byte regions between stream/endstream
// delimiters.
func findStreams(payload []byte) [][]byte {
	var regions [][]byte
	pos := 0
	for {
		start := bytes.Index(payload[pos:], streamStart)
		if start < 0 {
			break
		}
		start += pos + len(streamStart)

		// The keyword is followed by an end-of-line marker.
		for start < len(payload) && (payload[start] == '\r' || payload[start] == '\n') {
			start++
		}

		end := bytes.Index(payload[start:], streamEnd)
		if end < 0 {
			break
		}
		regions = append(regions, payload[start:start+end])
		pos = start + end + len(streamEnd)
	}
	return regions
}

// inflate decompresses a deflate/zlib stream.
func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// scanTextOperators extracts string arguments of text-showing operators
// inside BT/ET blocks.
func scanTextOperators(data []byte) string {
	var out strings.Builder
	pos := 0
	for {
		bt := indexToken(data[pos:], beginText)
		if bt < 0 {
			break
		}
		bt += pos
		et := indexToken(data[bt+len(beginText):], endText)
		if et < 0 {
			break
		}
		et += bt + len(beginText)

		scanStrings(data[bt+len(beginText):et], &out)
		pos = et + len(endText)
	}
	return out.String()
}

// indexToken finds tok delimited by non-alphanumeric bytes, so "BT"
// inside a longer name does not match.
func indexToken(data, tok []byte) int {
	pos := 0
	for {
		i := bytes.Index(data[pos:], tok)
		if i < 0 {
			return -1
		}
		i += pos
		beforeOK := i == 0 || !isRegular(data[i-1])
		after := i + len(tok)
		afterOK := after >= len(data) || !isRegular(data[after])
		if beforeOK && afterOK {
			return i
		}
		pos = i + 1
	}
}

func isRegular(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// scanStrings pulls literal and hex strings out of a text block.
func scanStrings(data []byte, out *strings.Builder) {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '(':
			s, next := readLiteral(data, i)
			if s != "" {
				out.WriteString(s)
				out.WriteByte(' ')
			}
			i = next
		case '<':
			if i+1 < len(data) && data[i+1] == '<' {
				i++ // dictionary, not a hex string
				continue
			}
			s, next := readHex(data, i)
			if s != "" {
				out.WriteString(s)
				out.WriteByte(' ')
			}
			i = next
		}
	}
}

// readLiteral reads a (possibly nested) literal string starting at the
// opening paren, unescaping backslash sequences. Returns the string and
// the index of the closing paren.
func readLiteral(data []byte, start int) (string, int) {
	var out strings.Builder
	depth := 1
	i := start + 1
	for ; i < len(data); i++ {
		c := data[i]
		if c == '\\' && i+1 < len(data) {
			i++
			switch data[i] {
			case 'n':
				out.WriteByte('\n')
			case 'r', 't':
				out.WriteByte(' ')
			case '(', ')', '\\':
				out.WriteByte(data[i])
			default:
				// Octal codes and line continuations are dropped.
			}
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				break
			}
		}
		if c >= 32 && c <= 126 || c == '\n' {
			out.WriteByte(c)
		}
	}
	return out.String(), i
}

// readHex decodes a hex string starting at '<', keeping printable ASCII
// bytes only. Returns the string and the index of the closing '>'.
func readHex(data []byte, start int) (string, int) {
	var out strings.Builder
	var hi byte
	half := false
	i := start + 1
	for ; i < len(data); i++ {
		c := data[i]
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if !half {
			hi = v
			half = true
			continue
		}
		b := hi<<4 | v
		half = false
		if b >= 32 && b <= 126 {
			out.WriteByte(b)
		}
	}
	return out.String(), i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// scanPrintableRuns is the whole-payload fallback: printable ASCII runs
// of at least two characters that contain a letter run of at least
// three, excluding structural keywords.
func scanPrintableRuns(payload []byte) string {
	var out strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= 2 && wordInRun.Match(run) {
			word := strings.TrimSpace(string(run))
			if _, reserved := reservedKeywords[word]; !reserved {
				out.Write(run)
				out.WriteByte(' ')
			}
		}
		run = run[:0]
	}
	for _, b := range payload {
		if b >= 32 && b <= 126 {
			run = append(run, b)
			continue
		}
		flush()
	}
	flush()
	return out.String()
}

// tidy collapses runs of spaces and trims the result.
func tidy(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// fillQualitySignals computes the gate inputs over the leading window.
func fillQualitySignals(text string, diag *domain.ExtractionDiagnostics) {
	window := text
	if len(window) > qualityWindow {
		window = window[:qualityWindow]
	}

	for _, p := range structuralPatterns {
		if p.MatchString(window) {
			diag.StructuralPatternHits++
		}
	}

	letters := 0
	for _, r := range window {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			letters++
		}
	}
	if len(window) > 0 {
		diag.LetterRatio = float64(letters) / float64(len(window))
	}
}

// failsQualityGate reports whether the output is garbage or too short.
func failsQualityGate(text string, diag domain.ExtractionDiagnostics) (string, bool) {
	if len(text) < minOutputLength {
		return "output too short", true
	}

	window := text
	if len(window) > qualityWindow {
		window = window[:qualityWindow]
	}
	if diag.StructuralPatternHits >= 3 && (diag.LetterRatio < 0.4 || !letterRun.MatchString(window)) {
		return "structural residue dominates output", true
	}
	return "", false
}
