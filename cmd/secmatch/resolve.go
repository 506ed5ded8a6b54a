package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Run the resolution pipeline",
		Long:  "Blocks the stored entities into candidate pairs, scores them via the embedding oracle, and thresholds the scores into match decisions.",
		RunE:  runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withOracles(func(d *oracleDeps) error {
		if err := ensureCollection(ctx, d); err != nil {
			return fmt.Errorf("ensuring qdrant collection: %w", err)
		}

		handler, err := newResolveHandler(d)
		if err != nil {
			return err
		}

		fmt.Println("Resolving...")
		result, err := handler.Handle(ctx)
		if err != nil {
			return fmt.Errorf("resolving: %w", err)
		}

		s := result.Summary
		fmt.Printf("Run %s\n", result.RunID)
		fmt.Printf("  entities processed:   %d\n", s.Processed)
		fmt.Printf("  candidate pairs:      %d\n", s.Candidates)
		fmt.Printf("  scored:               %d\n", s.Scored)
		fmt.Printf("  unresolved (scoring): %d\n", s.UnresolvedScoring)
		fmt.Printf("  approved:             %d\n", s.Approved)
		fmt.Printf("  pending review:       %d\n", s.Pending)
		if s.OutOfRange > 0 {
			fmt.Printf("  scores outside [0,1]: %d\n", s.OutOfRange)
		}
		fmt.Printf("  new decisions stored: %d\n", result.Inserted)

		if s.Pending > 0 {
			fmt.Println("\nRun 'secmatch adjudicate' to resolve pending decisions.")
		}
		return nil
	})
}
