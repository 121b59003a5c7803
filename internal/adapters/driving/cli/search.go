package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lessonforge/docqa/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [document-id] [query]",
	Short: "Search a document's passages",
	Long:  `Ranks the document's passages against the query with BM25 and prints the top results.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	documentID, query := args[0], args[1]

	results, err := queryService.Search(context.Background(), documentID, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, r := range results {
		cmd.Printf("  [%d] page %d, chunk %d (%.2f)\n", i+1, r.Chunk.PageNumber, r.Chunk.Index, r.Score)
		cmd.Printf("      %s\n", snippet(r.Chunk.Text, 160))
		if r.Explanation != "" {
			cmd.Printf("      %s\n", r.Explanation)
		}
	}
	return nil
}

// snippet truncates s for one-line display.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var askCmd = &cobra.Command{
	Use:   "ask [document-id] [question]",
	Short: "Answer a question from a document's passages",
	Long: `Searches the document and answers the question with the configured
generation backend. Without --ollama-url it prints the token-budgeted
context that would be passed to the model.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	documentID, question := args[0], args[1]
	ctx := context.Background()

	if generator != nil {
		answer, err := queryService.Answer(ctx, documentID, question)
		if err != nil {
			if errors.Is(err, domain.ErrNoRelevantContext) {
				cmd.Println("No relevant passages found for this question.")
				return nil
			}
			return err
		}
		cmd.Println(answer)
		return nil
	}

	contextText, results, err := queryService.Context(ctx, documentID, question)
	if err != nil {
		if errors.Is(err, domain.ErrNoRelevantContext) {
			cmd.Println("No relevant passages found for this question.")
			return nil
		}
		return err
	}

	cmd.Printf("Context from %d passages:\n\n%s\n", len(results), contextText)
	return nil
}
