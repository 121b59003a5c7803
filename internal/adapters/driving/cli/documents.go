package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents, most recently used first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		summaries, err := docStore.ListDocuments(context.Background())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			cmd.Println("No documents ingested.")
			return nil
		}
		for _, s := range summaries {
			cmd.Printf("  %s  %-30s  %3d pages  %6d words  %s\n",
				s.ID, s.Name, s.PageCount, s.Size, s.ProcessedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show a document's statistics and strongest index terms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, idf, err := queryService.Describe(context.Background(), args[0])
		if err != nil {
			return err
		}

		cmd.Printf("%s (%s)\n", doc.Name, doc.ID)
		cmd.Printf("  chunks: %d  words: %d  pages: %d  avg chunk: %.1f words\n",
			doc.TotalChunks, doc.TotalWords, doc.PageCount, doc.AvgChunkLength)
		cmd.Printf("  ingested: %s  last accessed: %s\n",
			doc.CreatedAt.Format("2006-01-02 15:04"), doc.LastAccessedAt.Format("2006-01-02 15:04"))

		type weighted struct {
			term string
			idf  float64
		}
		terms := make([]weighted, 0, len(idf))
		for term, w := range idf {
			terms = append(terms, weighted{term, w})
		}
		sort.Slice(terms, func(i, j int) bool {
			if terms[i].idf != terms[j].idf {
				return terms[i].idf > terms[j].idf
			}
			return terms[i].term < terms[j].term
		})
		if len(terms) > 10 {
			terms = terms[:10]
		}
		cmd.Println("  distinctive terms:")
		for _, t := range terms {
			cmd.Printf("    %-20s %.3f\n", t.term, t.idf)
		}
		return nil
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a document and its index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := docStore.DeleteDocument(context.Background(), args[0]); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store-wide statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := docStore.Stats(context.Background())
		if err != nil {
			return err
		}
		cmd.Printf("documents: %d\nchunks: %d\nvocabulary terms: %d\n",
			stats.TotalDocuments, stats.TotalChunks, stats.TotalVocabularyTerms)
		return nil
	},
}

func init() {
	documentsCmd.AddCommand(documentsListCmd, documentsShowCmd, documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd, statsCmd)
}
