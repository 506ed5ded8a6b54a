package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/application/handlers"
	"github.com/ersonp/secmatch/internal/domain/services"
)

func newAdjudicateCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "adjudicate",
		Short: "Adjudicate pending match decisions",
		Long:  "Sends pending decisions to the reasoning oracle and applies APPROVED/REJECTED verdicts. Inconclusive responses leave decisions pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdjudicate(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultAdjudicateLimit, "Maximum pending decisions to adjudicate")

	return cmd
}

func runAdjudicate(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withOracles(func(d *oracleDeps) error {
		adjudicator := services.NewAdjudicator(d.Reasoner, d.Store, adjudicatorOptions(d.Config.Resolution))
		handler := handlers.NewAdjudicateHandler(adjudicator, d.Store, d.Log)

		fmt.Println("Adjudicating...")
		result, err := handler.Handle(ctx, limit)
		if err != nil {
			return fmt.Errorf("adjudicating: %w", err)
		}

		stats := result.Stats
		fmt.Printf("Run %s\n", result.RunID)
		fmt.Printf("  processed:    %d\n", stats.Processed)
		fmt.Printf("  approved:     %d\n", stats.Approved)
		fmt.Printf("  rejected:     %d\n", stats.Rejected)
		fmt.Printf("  inconclusive: %d\n", stats.Inconclusive)
		if stats.Unavailable > 0 {
			fmt.Printf("  unavailable:  %d (will retry on the next pass)\n", stats.Unavailable)
		}
		if stats.Skipped > 0 {
			fmt.Printf("  skipped:      %d (finalized elsewhere)\n", stats.Skipped)
		}
		return nil
	})
}
