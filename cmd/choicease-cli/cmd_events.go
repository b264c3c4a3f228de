package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arunkumarkundra/choicease/internal/hermes"
)

func newEventsCommand(a *app) *cobra.Command {
	var (
		url     string
		subject string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow decision and what-if events",
		Long: `Subscribe to the event stream and print one line per event until interrupted.

Example:
  choicease events --nats nats://localhost:4222 --subject 'choicease.whatif.>'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = a.cfg.Hermes.URL
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := hermes.NewNATSClient(ctx, url, a.logger)
			if err != nil {
				return err
			}
			defer client.Close()

			return followEvents(ctx, client, subject, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "nats", "", "NATS server URL (default from config)")
	cmd.Flags().StringVar(&subject, "subject", "choicease.>", "subject filter")

	return cmd
}

// followEvents prints every message on subject until ctx is done.
func followEvents(ctx context.Context, c hermes.Client, subject string, out io.Writer) error {
	lines := make(chan string, 64)
	err := c.Subscribe(subject, func(subj string, data []byte) {
		select {
		case lines <- fmt.Sprintf("%s %s", subj, data):
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
	}
}
