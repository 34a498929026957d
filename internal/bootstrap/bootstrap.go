// Package bootstrap runs a long-lived process and shuts it down gracefully.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// App manages the lifecycle of a process with graceful shutdown support.
type App struct {
	mu    sync.Mutex
	hooks []shutdownHook

	shutdownTimeout time.Duration
	signals         []os.Signal
}

type Option func(*App)

// WithShutdownTimeout bounds the time shutdown hooks and the run function get after a stop.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(a *App) {
		a.shutdownTimeout = timeout
	}
}

func WithSignals(signals ...os.Signal) Option {
	return func(a *App) {
		a.signals = signals
	}
}

func New(opts ...Option) *App {
	a := &App{
		shutdownTimeout: DefaultShutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddShutdownHook registers a function to call during shutdown.
// Hooks run in reverse order of registration. Safe for concurrent use.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, shutdownHook{name: name, fn: fn})
}

// Run executes run until it returns or a signal arrives, then runs the
// shutdown hooks. After a signal, Run waits for run to return until the
// shutdown timeout expires.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, a.signals...)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	returned := false
	select {
	case runErr = <-errCh:
		returned = true
	case <-ctx.Done():
		slog.Default().Info("Shutting down", "timeout", a.shutdownTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
	defer shutdownCancel()
	shutdownErr := a.shutdown(shutdownCtx)

	if !returned {
		select {
		case runErr = <-errCh:
		case <-shutdownCtx.Done():
			runErr = fmt.Errorf("run did not return within %s: %w", a.shutdownTimeout, shutdownCtx.Err())
		}
	}
	return errors.Join(runErr, shutdownErr)
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for i := len(a.hooks) - 1; i >= 0; i-- {
		hook := a.hooks[i]
		if err := hook.fn(ctx); err != nil {
			slog.Default().Warn("Shutdown hook failed", "hook", hook.name, "error", err)
			errs = append(errs, fmt.Errorf("%s > %w", hook.name, err))
		}
	}
	return errors.Join(errs...)
}
