package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/at-ishikawa/neotutor/internal/bootstrap"
	"github.com/at-ishikawa/neotutor/internal/config"
	"github.com/at-ishikawa/neotutor/internal/inference"
	"github.com/at-ishikawa/neotutor/internal/inference/gemini"
	"github.com/at-ishikawa/neotutor/internal/inference/genaisdk"
	"github.com/at-ishikawa/neotutor/internal/server"
	"github.com/at-ishikawa/neotutor/internal/tutor"
	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	configFile := pflag.String("config", os.Getenv("NEOTUTOR_CONFIG"), "config file path")
	debugMode := pflag.Bool("debug", os.Getenv("NEOTUTOR_DEBUG") != "", "Enable debug mode")
	pflag.Parse()

	if err := run(context.Background(), *configFile, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, debugMode bool) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return fmt.Errorf("config.LoadEnvFile() > %w", err)
	}
	setupLogger(debugMode)

	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := newInferenceClient(ctx, cfg.Gemini)
	if err != nil {
		return err
	}

	instruction, err := cfg.Tutor.Instruction()
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("cfg.Tutor.Instruction() > %w", err)
	}
	tutorHandler := tutor.New(client,
		tutor.WithPolicy(cfg.Retry.Policy()),
		tutor.WithSystemInstruction(instruction),
	)

	handler, err := server.NewTutorHandler(tutorHandler, cfg.Contact.Links(), cfg.Tutor.MaxQuestionLength)
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("server.NewTutorHandler() > %w", err)
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHTTPHandler(handler, cfg.Server.CORS.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	app := bootstrap.New()
	app.AddShutdownHook("inference client", func(ctx context.Context) error {
		return client.Close()
	})
	app.AddShutdownHook("http server", httpServer.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("Starting server",
			"addr", httpServer.Addr,
			"model", cfg.Gemini.Model,
			"transport", cfg.Gemini.Transport,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
		}
		return nil
	})
}

func newHTTPHandler(handler server.TutorServiceHandler, allowedOrigins []string) http.Handler {
	path, h := server.NewTutorServiceHandler(handler)

	mux := http.NewServeMux()
	mux.Handle(path, h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return corsMiddleware(allowedOrigins)(h2c.NewHandler(mux, &http2.Server{}))
}

func loadConfig(configFile string) (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

type inferenceClient interface {
	inference.Client
	Close() error
}

func newInferenceClient(ctx context.Context, cfg config.GeminiConfig) (inferenceClient, error) {
	if cfg.Transport == config.TransportSDK {
		client, err := genaisdk.NewClient(ctx, genaisdk.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("genaisdk.NewClient() > %w", err)
		}
		return client, nil
	}
	return gemini.NewClient(gemini.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}), nil
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(
		slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})),
	)
}

// corsMiddleware only echoes origins in allowedOrigins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
					"Content-Type",
					"Connect-Protocol-Version",
					"Connect-Timeout-Ms",
				}, ", "))
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
