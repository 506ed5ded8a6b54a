package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func newDecisionsCmd() *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "List match decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecisions(cmd, limit, status)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of decisions to display")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status: approved, pending, or rejected")

	return cmd
}

func runDecisions(cmd *cobra.Command, limit int, status string) error {
	ctx := cmd.Context()

	return withStore(func(d *storeDeps) error {
		var list []entities.MatchDecision
		var err error

		if status != "" {
			st := entities.MatchStatus(strings.ToUpper(status))
			switch st {
			case entities.StatusApproved, entities.StatusPending, entities.StatusRejected:
			default:
				return fmt.Errorf("unknown status %q, valid statuses: approved, pending, rejected", status)
			}
			list, err = d.Store.ListDecisionsByStatus(ctx, st, limit)
		} else {
			list, err = d.Store.ListDecisions(ctx, limit)
		}
		if err != nil {
			return fmt.Errorf("listing decisions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No match decisions found.")
			return nil
		}

		fmt.Printf("Showing %d decisions:\n\n", len(list))
		for _, dec := range list {
			fmt.Printf("  %s  %.4f  %-8s %-16s %s <-> %s\n",
				dec.MatchID, dec.SimilarityScore, dec.Status, dec.Method, dec.ID1, dec.ID2)
			if dec.Rationale != "" {
				fmt.Printf("    rationale: %s\n", dec.Rationale)
			}
		}
		return nil
	})
}
