package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func newSummaryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show recent pipeline runs",
		Long:  "Lists the most recent ingest, resolve, and adjudicate runs with their counters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of runs to show")

	return cmd
}

func runSummary(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withStore(func(d *storeDeps) error {
		runs, err := d.Store.ListRuns(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, run := range runs {
			fmt.Printf("%s  %-10s  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"), run.Kind, run.RunID)
			printRunCounters(run)
		}
		return nil
	})
}

func printRunCounters(run entities.ResolutionRun) {
	s := run.Summary
	switch run.Kind {
	case entities.RunKindIngest:
		fmt.Printf("    processed: %d, dropped: %d\n", s.Processed, s.DroppedMalformed)
	case entities.RunKindResolve:
		fmt.Printf("    candidates: %d, scored: %d, unresolved: %d, out-of-range: %d\n",
			s.Candidates, s.Scored, s.UnresolvedScoring, s.OutOfRange)
		fmt.Printf("    approved: %d, pending: %d\n", s.Approved, s.Pending)
	case entities.RunKindAdjudicate:
		fmt.Printf("    processed: %d, approved: %d, rejected: %d, inconclusive: %d\n",
			s.Processed, s.Approved, s.Rejected, s.Inconclusive)
	}
}
