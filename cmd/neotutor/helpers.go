package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/neotutor/internal/config"
	"github.com/at-ishikawa/neotutor/internal/inference"
	"github.com/at-ishikawa/neotutor/internal/inference/gemini"
	"github.com/at-ishikawa/neotutor/internal/inference/genaisdk"
	"github.com/at-ishikawa/neotutor/internal/tutor"
	"github.com/spf13/pflag"
)

type TransportFlag string

// Set implements pflag.Value.
func (f *TransportFlag) Set(v string) error {
	switch v {
	case config.TransportREST, config.TransportSDK:
		*f = TransportFlag(v)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, config.TransportREST, config.TransportSDK)
	}
	return nil
}

// String implements pflag.Value.
func (f *TransportFlag) String() string {
	if f == nil {
		return ""
	}
	return string(*f)
}

// Type implements pflag.Value.
func (f *TransportFlag) Type() string {
	return "TransportFlag"
}

var (
	_ pflag.Value = (*TransportFlag)(nil)
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

type inferenceClient interface {
	inference.Client
	Close() error
	GetModel() string
}

func newInferenceClient(ctx context.Context, cfg config.GeminiConfig) (inferenceClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	switch cfg.Transport {
	case config.TransportSDK:
		client, err := genaisdk.NewClient(ctx, genaisdk.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("genaisdk.NewClient() > %w", err)
		}
		return client, nil
	default:
		return gemini.NewClient(gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	}
}

func newTutorHandler(cfg *config.Config, client inference.Client) (*tutor.Handler, error) {
	instruction, err := cfg.Tutor.Instruction()
	if err != nil {
		return nil, fmt.Errorf("cfg.Tutor.Instruction() > %w", err)
	}
	return tutor.New(client,
		tutor.WithPolicy(cfg.Retry.Policy()),
		tutor.WithSystemInstruction(instruction),
		tutor.WithRetryObserver(func(attempt uint, delay time.Duration, err error) {
			slog.Default().Debug("Backing off", "attempt", attempt, "delay", delay, "error", err)
		}),
	), nil
}
