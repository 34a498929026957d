// Package render prints tutor answers for people: styled markdown in a
// terminal, or a PDF study note.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/tutor"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

const DefaultWordWrap = 80

var linkLabels = map[string]string{
	contact.NameBookingForm: "Book a session",
	contact.NameMessaging:   "Message us on WhatsApp",
}

type Terminal struct {
	out      io.Writer
	markdown *glamour.TermRenderer

	answer  *color.Color
	warning *color.Color
	label   *color.Color
	link    *color.Color
}

type TerminalOption func(*terminalOptions)

type terminalOptions struct {
	plain    bool
	wordWrap int
	style    string
}

// WithPlain prints answers as they were generated.
func WithPlain() TerminalOption {
	return func(o *terminalOptions) {
		o.plain = true
	}
}

func WithWordWrap(width int) TerminalOption {
	return func(o *terminalOptions) {
		o.wordWrap = width
	}
}

// WithStyle selects a glamour standard style such as "dark" or "notty".
func WithStyle(style string) TerminalOption {
	return func(o *terminalOptions) {
		o.style = style
	}
}

func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	options := terminalOptions{wordWrap: DefaultWordWrap}
	for _, opt := range opts {
		opt(&options)
	}

	t := &Terminal{
		out:     out,
		answer:  color.New(color.FgCyan),
		warning: color.New(color.FgYellow, color.Bold),
		label:   color.New(color.Bold),
		link:    color.New(color.Underline),
	}
	if options.plain {
		return t
	}

	styleOption := glamour.WithAutoStyle()
	if options.style != "" {
		styleOption = glamour.WithStandardStyle(options.style)
	}
	renderer, err := glamour.NewTermRenderer(
		styleOption,
		glamour.WithWordWrap(options.wordWrap),
		glamour.WithEmoji(),
	)
	if err != nil {
		slog.Default().Warn("Markdown rendering is disabled", "error", err)
		return t
	}
	t.markdown = renderer
	return t
}

// Result prints the answer, or the fallback message followed by the contact links.
func (t *Terminal) Result(result tutor.Result, links contact.Links) error {
	if !result.OK() {
		return t.Fallback(result.Err.Error(), links)
	}
	return t.Answer(result.Text)
}

func (t *Terminal) Answer(text string) error {
	if t.markdown != nil {
		rendered, err := t.markdown.Render(text)
		if err == nil {
			_, err = fmt.Fprint(t.out, rendered)
			return err
		}
		slog.Default().Debug("Failed to render markdown, printing raw text", "error", err)
	}

	if _, err := t.answer.Fprintln(t.out, strings.TrimRight(text, "\n")); err != nil {
		return fmt.Errorf("answer.Fprintln > %w", err)
	}
	return nil
}

func (t *Terminal) Fallback(message string, links contact.Links) error {
	if _, err := t.warning.Fprintln(t.out, message); err != nil {
		return fmt.Errorf("warning.Fprintln > %w", err)
	}
	return t.Links(links)
}

func (t *Terminal) Links(links contact.Links) error {
	all := links.All()
	if len(all) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(t.out, "Need a human? Reach out:"); err != nil {
		return err
	}
	for _, l := range all {
		label, ok := linkLabels[l.Name]
		if !ok {
			label = l.Name
		}
		if _, err := fmt.Fprintf(t.out, "  %s: %s\n", t.label.Sprint(label), t.link.Sprint(l.URL)); err != nil {
			return err
		}
	}
	return nil
}

// LinkStatuses prints the result of a contact link probe.
func (t *Terminal) LinkStatuses(statuses []contact.Status) error {
	ok := color.New(color.FgGreen)
	for _, s := range statuses {
		mark := ok.Sprint("OK")
		detail := fmt.Sprintf("%d", s.StatusCode)
		if !s.Reachable {
			mark = t.warning.Sprint("NG")
			if s.Err != nil {
				detail = s.Err.Error()
			}
		}
		if _, err := fmt.Fprintf(t.out, "%s\t%s\t%s\t%s\n", mark, s.Name, s.URL, detail); err != nil {
			return err
		}
	}
	return nil
}
