package main

import (
	"github.com/spf13/cobra"

	"github.com/arunkumarkundra/choicease/internal/analysis"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		file    string
		seed    int64
		trials  int
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a decision document",
		Long: `Run the full analysis over a decision document and print the report as JSON.

The document may be JSON or YAML. Use -f - to read it from stdin.

Examples:
  choicease analyze -f laptop.json
  choicease analyze -f vendors.yaml --seed 7 --compact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, w, err := loadDocument(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			settings := analysis.Settings{
				StabilityTrials:     a.cfg.Analysis.StabilityTrials,
				StabilityNoise:      a.cfg.Analysis.StabilityNoise,
				SatisficerThreshold: a.cfg.Analysis.SatisficerThreshold,
				Seed:                a.cfg.Analysis.Seed,
			}
			if cmd.Flags().Changed("seed") {
				settings.Seed = seed
			}
			if trials > 0 {
				settings.StabilityTrials = trials
			}

			rep, err := analysis.NewAnalyzer(settings, a.logger).AnalyzeWithWeights(m, w)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep, compact)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "decision document (JSON or YAML, - for stdin)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the stability simulation")
	cmd.Flags().IntVar(&trials, "trials", 0, "stability simulation trials (default from config)")
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
