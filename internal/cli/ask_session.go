package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/render"
	"github.com/at-ishikawa/neotutor/internal/tutor"
	"github.com/fatih/color"
)

// Asker is satisfied by *tutor.Handler.
type Asker interface {
	Ask(ctx context.Context, query string) (tutor.Result, bool)
}

// AskSession reads one question per line and prints the answer.
// Questions are asked one at a time, so a student never has two in flight.
type AskSession struct {
	asker        Asker
	links        contact.Links
	terminal     *render.Terminal
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	prompt       *color.Color
	hint         *color.Color
}

func NewAskSession(
	asker Asker,
	links contact.Links,
	terminal *render.Terminal,
	stdin io.Reader,
	stdout io.Writer,
) *AskSession {
	return &AskSession{
		asker:        asker,
		links:        links,
		terminal:     terminal,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		prompt:       color.New(color.FgMagenta, color.Bold),
		hint:         color.New(color.Faint),
	}
}

func (s *AskSession) Run(ctx context.Context) error {
	_, _ = s.hint.Fprintln(s.stdoutWriter, "Ask Neo anything. Type quit or exit to leave.")
	return Run(ctx, s, s.stdoutWriter)
}

func (s *AskSession) Session(ctx context.Context) error {
	if _, err := s.prompt.Fprint(s.stdoutWriter, "Ask Neo: "); err != nil {
		return fmt.Errorf("prompt.Fprint > %w", err)
	}

	line, err := s.stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdinReader.ReadString > %w", err)
	}
	atEOF := errors.Is(err, io.EOF)

	question := strings.TrimSpace(line)
	if isExitCommand(question) {
		return errEnd
	}
	if question == "" {
		if atEOF {
			_, _ = fmt.Fprintln(s.stdoutWriter)
			return errEnd
		}
		return nil
	}

	slog.Default().Debug("Asking a question", "question", question)
	result, ok := s.asker.Ask(ctx, question)
	if ok {
		if err := s.terminal.Result(result, s.links); err != nil {
			return fmt.Errorf("terminal.Result > %w", err)
		}
	}
	if atEOF {
		return errEnd
	}
	return nil
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit":
		return true
	}
	return false
}
