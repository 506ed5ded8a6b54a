package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/application/handlers"
	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/services"
)

func newIngestCmd() *cobra.Command {
	var feed string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest and harmonize a feed file",
		Long:  "Parses a CSV or JSON feed file, harmonizes its records onto the common schema, and stores the entities.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], feed)
		},
	}

	cmd.Flags().StringVarP(&feed, "feed", "f", "", "Source feed: feed_a, feed_b, or feed_c (required)")
	_ = cmd.MarkFlagRequired("feed")

	return cmd
}

func runIngest(cmd *cobra.Command, filePath, feed string) error {
	ctx := cmd.Context()

	source := entities.Source(strings.ToUpper(feed))
	if !source.Valid() {
		return fmt.Errorf("unknown feed %q, valid feeds: feed_a, feed_b, feed_c", feed)
	}

	return withStore(func(d *storeDeps) error {
		handler := handlers.NewIngestHandler(services.NewNormalizer(), d.Store, d.Log)

		result, err := handler.Handle(ctx, filePath, source)
		if err != nil {
			return fmt.Errorf("ingesting file: %w", err)
		}

		fmt.Printf("Ingested %s from %s\n", result.FilePath, result.Source)
		fmt.Printf("  harmonized: %d\n", result.Processed)
		fmt.Printf("  dropped (malformed): %d\n", result.Dropped)
		return nil
	})
}
