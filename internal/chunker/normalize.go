package chunker

import (
	"regexp"
	"strings"
)

var (
	hyphenBreak   = regexp.MustCompile(`(\pL)-\n(\pL)`)
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	spacedNewline = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	newlineRun    = regexp.MustCompile(`\n{3,}`)
)

// ocrArtifacts maps ligatures and typography that OCR and extraction
// commonly produce to their plain ASCII form.
var ocrArtifacts = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"­", "", // soft hyphen
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	" ", " ",
)

// Normalize canonicalises whitespace, line endings and common OCR
// artifacts. Chunk offsets refer to the normalised text.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = ocrArtifacts.Replace(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = spaceRun.ReplaceAllString(text, " ")
	text = spacedNewline.ReplaceAllString(text, "\n")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
