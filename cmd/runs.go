package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved batch runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent batch runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		fmt.Printf("%-8s  %-19s  %6s  %6s  %6s  %6s  %8s  %s\n",
			"ID", "Created", "Total", "Valid", "Inval", "Unk", "Acc", "Source")
		fmt.Println(strings.Repeat("─", 96))
		for _, r := range runs {
			acc := "-"
			if r.Accuracy != nil {
				acc = fmt.Sprintf("%.1f%%", *r.Accuracy*100)
			}
			flag := ""
			if r.Cancelled {
				flag = " (cancelled)"
			} else if r.Degraded {
				flag = " (degraded)"
			}
			fmt.Printf("%-8s  %-19s  %6d  %6d  %6d  %6d  %8s  %s%s\n",
				truncate(r.ID, 8),
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Total, r.Valid, r.Invalid, r.Unknown, acc, r.Source, flag)
		}
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a run and its per-proof results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		r, err := s.GetRun(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %q not found", args[0])
		}
		if err != nil {
			return err
		}
		results, err := s.RunResults(ctx, r.ID)
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", r.ID)
		fmt.Printf("Created:     %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Source:      %s\n", r.Source)
		if r.ModelDir != "" {
			fmt.Printf("Model:       %s\n", r.ModelDir)
		}
		fmt.Printf("Rules:       %v\n", r.AllowRules)
		fmt.Printf("Counts:      %d total, %d valid, %d invalid, %d unknown\n", r.Total, r.Valid, r.Invalid, r.Unknown)
		fmt.Printf("Skipped:     %d empty, %d malformed\n", r.Skipped, r.Malformed)
		if r.AvgConfidence != nil {
			fmt.Printf("Avg conf:    %.4f\n", *r.AvgConfidence)
		} else {
			fmt.Println("Avg conf:    No data")
		}
		if r.Accuracy != nil {
			fmt.Printf("Accuracy:    %.2f%%\n", *r.Accuracy*100)
		}
		if r.Degraded {
			fmt.Println("Degraded:    model unavailable")
		}
		if r.Cancelled {
			fmt.Println("Cancelled:   yes")
		}

		if len(results) == 0 {
			return nil
		}
		fmt.Println()
		fmt.Printf("%-5s  %-20s  %-8s  %6s  %-6s  %-8s  %s\n",
			"#", "Proof", "Verdict", "Conf", "Source", "Expected", "Rule")
		fmt.Println(strings.Repeat("─", 80))
		for i, res := range results {
			if limit > 0 && i >= limit {
				fmt.Printf("... %d more\n", len(results)-limit)
				break
			}
			fmt.Printf("%-5d  %-20s  %-8s  %6.4f  %-6s  %-8s  %s\n",
				res.Position, truncate(res.ProofID, 20), res.Verdict, res.Confidence,
				res.Source, res.Expected, res.Rule)
		}
		return nil
	},
}

// mustOpenStore opens the database even when store.disabled is set, for
// commands whose whole purpose is reading it.
func mustOpenStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsViewCmd.Flags().IntP("limit", "n", 50, "Number of results to show (0 = all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
}
