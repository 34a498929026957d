package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/render"
	"github.com/spf13/cobra"
)

func newLinksCommand() *cobra.Command {
	linksCommand := &cobra.Command{
		Use:   "links",
		Short: "Show the contact links students are pointed to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return render.NewTerminal(cmd.OutOrStdout(), render.WithPlain()).Links(cfg.Contact.Links())
		},
	}

	var timeout time.Duration
	checkCommand := &cobra.Command{
		Use:   "check",
		Short: "Check that the contact links are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runLinksCheck(cmd.Context(), contact.NewProber(timeout), cfg.Contact.Links(), cmd.OutOrStdout())
		},
	}
	checkCommand.Flags().DurationVar(&timeout, "timeout", contact.DefaultProbeTimeout, "Timeout of each request")

	linksCommand.AddCommand(checkCommand)
	return linksCommand
}

func runLinksCheck(ctx context.Context, prober *contact.Prober, links contact.Links, out io.Writer) error {
	statuses := prober.Probe(ctx, links)
	if err := render.NewTerminal(out, render.WithPlain()).LinkStatuses(statuses); err != nil {
		return fmt.Errorf("terminal.LinkStatuses > %w", err)
	}

	var unreachable int
	for _, s := range statuses {
		if !s.Reachable {
			unreachable++
		}
	}
	if unreachable > 0 {
		return fmt.Errorf("%d of %d contact links are unreachable", unreachable, len(statuses))
	}
	return nil
}
