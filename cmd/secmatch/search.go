package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/application/handlers"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Semantic search over harmonized entities",
		Long:  "Embeds the query text and returns the stored entities with the most similar cached descriptions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", handlers.DefaultSearchLimit, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int) error {
	ctx := cmd.Context()

	return withOracles(func(d *oracleDeps) error {
		if err := ensureCollection(ctx, d); err != nil {
			return fmt.Errorf("ensuring qdrant collection: %w", err)
		}

		handler := handlers.NewSearchHandler(d.Embedder, d.Cache)

		hits, err := handler.Handle(ctx, query, limit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(hits) == 0 {
			fmt.Println("No matches found.")
			return nil
		}

		for _, hit := range hits {
			fmt.Printf("  %.4f  %-24s %s\n", hit.Score, hit.HarmonizedID, hit.Description)
		}
		return nil
	})
}
