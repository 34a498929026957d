package main

import (
	"fmt"
	"os"

	"github.com/at-ishikawa/neotutor/internal/cli"
	"github.com/at-ishikawa/neotutor/internal/render"
	"github.com/spf13/cobra"
)

func newChatCommand() *cobra.Command {
	var plain bool
	var transport TransportFlag

	command := &cobra.Command{
		Use:   "chat",
		Short: "Ask Neo questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if transport != "" {
				cfg.Gemini.Transport = string(transport)
			}

			client, err := newInferenceClient(cmd.Context(), cfg.Gemini)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Using Gemini (model: %s, transport: %s)\n", client.GetModel(), cfg.Gemini.Transport)

			handler, err := newTutorHandler(cfg, client)
			if err != nil {
				return err
			}

			var terminalOptions []render.TerminalOption
			if plain {
				terminalOptions = append(terminalOptions, render.WithPlain())
			}
			out := cmd.OutOrStdout()
			session := cli.NewAskSession(
				handler,
				cfg.Contact.Links(),
				render.NewTerminal(out, terminalOptions...),
				os.Stdin,
				out,
			)
			return session.Run(cmd.Context())
		},
	}

	command.Flags().BoolVar(&plain, "plain", false, "Print answers without markdown styling")
	command.Flags().Var(&transport, "transport", "Override gemini.transport. Options: rest, sdk")
	return command
}
