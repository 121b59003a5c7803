package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lessonforge/docqa/internal/core/domain"
)

var (
	ingestPages int
	ingestText  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document for question answering",
	Long: `Extracts text from a binary document payload, splits it into
passages, and indexes it. With --text the file (or stdin when the
argument is "-") is treated as already-extracted plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "estimated page count (default: derived from size)")
	ingestCmd.Flags().BoolVar(&ingestText, "text", false, "treat input as plain text, skipping extraction")
	rootCmd.AddCommand(ingestCmd)
}

// estimatePages guesses a page count from payload size when the caller
// does not provide one. Roughly 2 KiB of text per page.
func estimatePages(size int) int {
	pages := size / 2048
	if pages < 1 {
		pages = 1
	}
	return pages
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	var payload []byte
	var err error
	name := filepath.Base(path)
	if path == "-" {
		payload, err = io.ReadAll(os.Stdin)
		name = "stdin"
	} else {
		payload, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	pages := ingestPages
	if pages <= 0 {
		pages = estimatePages(len(payload))
	}

	ctx := context.Background()
	var doc *domain.Document
	if ingestText {
		doc, err = ingestService.IngestText(ctx, name, string(payload), pages)
	} else {
		doc, err = ingestService.IngestBytes(ctx, name, payload, pages)
	}
	if err != nil {
		var extractionErr *domain.ExtractionError
		if errors.As(err, &extractionErr) {
			cmd.PrintErrln("Extraction failed; try OCR or paste the text with --text.")
			cmd.PrintErrf("  %v\n", extractionErr)
		}
		return err
	}

	cmd.Printf("Ingested %q as %s\n", doc.Name, doc.ID)
	cmd.Printf("  %d chunks, %d words, %d pages\n", doc.TotalChunks, doc.TotalWords, doc.PageCount)
	return nil
}
