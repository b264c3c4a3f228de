package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

func newWeightsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "weights IMPORTANCE...",
		Short: "Normalize importances into percentage weights",
		Long: `Convert 1-5 importances into weights that sum to 100, along with integer
percentages that also sum to 100. Criteria are numbered in argument order.

Example:
  choicease weights 5 1 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importances := make(map[int]int, len(args))
			for i, arg := range args {
				v, err := strconv.Atoi(arg)
				if err != nil || v < decision.MinImportance || v > decision.MaxImportance {
					return fmt.Errorf("importance %q: %w", arg, decision.ErrImportanceOutOfRange)
				}
				importances[i+1] = v
			}

			w := scoring.Normalize(importances)
			rounded := w.Rounded()
			if asJSON {
				type row struct {
					Criterion  int     `json:"criterion"`
					Importance int     `json:"importance"`
					Weight     float64 `json:"weight"`
					Rounded    int     `json:"rounded"`
				}
				rows := make([]row, 0, len(args))
				for _, id := range w.IDs() {
					rows = append(rows, row{id, importances[id], w[id], rounded[id]})
				}
				return printJSON(cmd.OutOrStdout(), rows, false)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CRITERION\tIMPORTANCE\tWEIGHT\tROUNDED")
			for _, id := range w.IDs() {
				fmt.Fprintf(tw, "%d\t%d\t%.4f%%\t%d%%\n", id, importances[id], w[id], rounded[id])
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
