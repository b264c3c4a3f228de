package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arunkumarkundra/choicease/internal/config"
	"github.com/arunkumarkundra/choicease/internal/logging"
)

var version = "dev"

// app carries what the root command resolves for its subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{cfg: config.Default(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cmd := &cobra.Command{
		Use:   "choicease",
		Short: "Choicease - weighted multi-criteria decision analysis",
		Long: `Choicease scores options against weighted criteria and explains the result.

It ranks options, estimates how confident the ranking is, finds the criteria
whose weights could flip the winner, profiles the winner's risks and lets you
explore weight changes interactively.`,
		Version:      version,
		SilenceUsage: true,
	}

	configPath := cmd.PersistentFlags().String("config", "", "path to config file")
	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if *debugLogging {
			cfg.Logging.Level = "debug"
		}
		// The CLI writes results to stdout, so logs never go there.
		cfg.Logging.File = ""
		logger, closer, err := logging.New(cfg.Logging, os.Stderr)
		if err != nil {
			return err
		}
		a.cfg, a.logger, a.closer = cfg, logger, closer
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.closer != nil {
			return a.closer.Close()
		}
		return nil
	}

	cmd.AddCommand(newAnalyzeCommand(a))
	cmd.AddCommand(newWeightsCommand())
	cmd.AddCommand(newWhatIfCommand(a))
	cmd.AddCommand(newEventsCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "choicease version %s\n", version)
		},
	}
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
