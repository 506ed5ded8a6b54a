package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func newEntitiesCmd() *cobra.Command {
	var (
		limit  int
		source string
	)

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List harmonized entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(cmd, limit, source)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of entities to display")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Filter by feed: feed_a, feed_b, or feed_c")

	return cmd
}

func runEntities(cmd *cobra.Command, limit int, source string) error {
	ctx := cmd.Context()

	return withStore(func(d *storeDeps) error {
		var list []entities.HarmonizedEntity
		var err error

		if source != "" {
			src := entities.Source(strings.ToUpper(source))
			if !src.Valid() {
				return fmt.Errorf("unknown feed %q, valid feeds: feed_a, feed_b, feed_c", source)
			}
			list, err = d.Store.ListEntitiesBySource(ctx, src, limit)
		} else {
			list, err = d.Store.ListEntities(ctx, limit, 0)
		}
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No harmonized entities found.")
			return nil
		}

		total, _ := d.Store.CountEntities(ctx)
		fmt.Printf("Showing %d of %d entities:\n\n", len(list), total)
		for _, e := range list {
			fmt.Printf("  %-24s %s\n", e.HarmonizedID, e.Description())
		}
		return nil
	})
}
