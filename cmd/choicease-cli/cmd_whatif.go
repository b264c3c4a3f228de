package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arunkumarkundra/choicease/internal/whatif"
)

func newWhatIfCommand(a *app) *cobra.Command {
	var (
		file    string
		sets    []string
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "whatif",
		Short: "Re-rank a decision under different weights",
		Long: `Apply raw weights to a copy of the decision and print the re-ranked outcome.

Weights are raw values that are renormalized to sum to 100; criteria not
named keep their current weight.

Example:
  choicease whatif -f laptop.json --set 1=40 --set 2=60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			m, w, err := loadDocument(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := whatif.NewSession("cli", m, w, whatif.Options{CacheCapacity: a.cfg.WhatIf.CacheCapacity})
			if err != nil {
				return err
			}
			defer s.Close()

			if len(values) > 0 {
				if err := s.SetWeights(values); err != nil {
					return err
				}
			}
			out, err := s.Flush()
			if err != nil {
				return err
			}
			a.logger.Debug("what-if evaluated", "fingerprint", out.Fingerprint, "winner_changed", out.WinnerChanged)
			return printJSON(cmd.OutOrStdout(), out, compact)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "decision document (JSON or YAML, - for stdin)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "raw weight as <criterionId>=<value>, repeatable")
	cmd.Flags().BoolVar(&compact, "compact", false, "print compact JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func parseSets(sets []string) (map[int]float64, error) {
	values := make(map[int]float64, len(sets))
	for _, s := range sets {
		key, val, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want <criterionId>=<value>", s)
		}
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid criterion id in --set %q", s)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in --set %q", s)
		}
		values[id] = v
	}
	return values, nil
}
