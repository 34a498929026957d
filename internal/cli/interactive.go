// Package cli implements the interactive terminal front end of the tutor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

var errEnd = errors.New("end")

//go:generate mockgen -source=interactive.go -destination=../mocks/cli/mock_session.go -package=mock_cli

// Session is one prompt and response of an interactive loop.
// It returns errEnd when the user is done.
type Session interface {
	Session(ctx context.Context) error
}

// Run repeats session until it returns an error or the process is interrupted.
func Run(ctx context.Context, session Session, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(
		ctx,
		os.Interrupt,
	)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := session.Session(ctx); err != nil {
				if errors.Is(err, errEnd) {
					return
				}
				errCh <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(out, "\nReceived interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}
