package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/at-ishikawa/neotutor/internal/cli"
	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/render"
	"github.com/spf13/cobra"
)

type askOptions struct {
	plain   bool
	pdfPath string
}

func newAskCommand() *cobra.Command {
	var options askOptions
	var transport TransportFlag

	command := &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask Neo a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if transport != "" {
				cfg.Gemini.Transport = string(transport)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			client, err := newInferenceClient(ctx, cfg.Gemini)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			handler, err := newTutorHandler(cfg, client)
			if err != nil {
				return err
			}
			return runAsk(ctx, handler, cfg.Contact.Links(), strings.Join(args, " "), options, cmd.OutOrStdout())
		},
	}

	flags := command.Flags()
	flags.BoolVar(&options.plain, "plain", false, "Print the answer without markdown styling")
	flags.StringVar(&options.pdfPath, "pdf", "", "Also save the question and answer to this PDF file")
	flags.Var(&transport, "transport", "Override gemini.transport. Options: rest, sdk")
	return command
}

func runAsk(ctx context.Context, asker cli.Asker, links contact.Links, question string, options askOptions, out io.Writer) error {
	result, ok := asker.Ask(ctx, question)
	if !ok {
		return errors.New("the question is empty")
	}

	var terminalOptions []render.TerminalOption
	if options.plain {
		terminalOptions = append(terminalOptions, render.WithPlain())
	}
	if err := render.NewTerminal(out, terminalOptions...).Result(result, links); err != nil {
		return fmt.Errorf("terminal.Result > %w", err)
	}

	if options.pdfPath == "" || !result.OK() {
		return nil
	}
	path, err := render.ExportPDF(options.pdfPath, question, result.Text)
	if err != nil {
		return fmt.Errorf("render.ExportPDF > %w", err)
	}
	_, _ = fmt.Fprintf(out, "Saved the answer to %s\n", path)
	return nil
}
