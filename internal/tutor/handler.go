// Package tutor answers student questions through a text-generation
// service, hiding transient failures behind retries with exponential backoff.
package tutor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/neotutor/internal/inference"
	"github.com/avast/retry-go"
)

// FallbackMessage is what the student sees when no attempt succeeded.
const FallbackMessage = "Oops! My brain froze for a second. Try asking again! 🧊"

// DefaultSystemInstruction is sent with every question.
const DefaultSystemInstruction = "You are Neo, a super fun, energetic, and encouraging private tutor for K-12 students. " +
	"Your goal is to explain complex concepts in simple, memorable ways using analogies and emojis. " +
	"Keep your explanations under 100 words. If the user asks for a study plan, give a brief 3-point plan."

// ErrUnavailable is the only failure a caller ever sees. The cause of the
// last failed attempt is logged, not returned.
var ErrUnavailable = errors.New(FallbackMessage)

// Result is either the generated text or ErrUnavailable.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// RetryObserver is called before every backoff wait with the index of the
// attempt that failed.
type RetryObserver func(attempt uint, delay time.Duration, err error)

type Handler struct {
	client            inference.Client
	systemInstruction string
	policy            Policy
	observer          RetryObserver
}

type Option func(*Handler)

func WithPolicy(policy Policy) Option {
	return func(h *Handler) {
		h.policy = policy
	}
}

func WithSystemInstruction(instruction string) Option {
	return func(h *Handler) {
		h.systemInstruction = instruction
	}
}

func WithRetryObserver(observer RetryObserver) Option {
	return func(h *Handler) {
		h.observer = observer
	}
}

func New(client inference.Client, opts ...Option) *Handler {
	h := &Handler{
		client:            client,
		systemInstruction: DefaultSystemInstruction,
		policy:            DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Policy() Policy {
	return h.policy
}

// Ask blocks until the question is answered or the retry budget is spent.
// A blank query is declined without any request, and ok is false.
//
// Cancelling ctx stops the sequence between attempts; the result is then
// ErrUnavailable like any other failure. Pass context.WithoutCancel to let
// the sequence run to the end regardless of the caller.
func (h *Handler) Ask(ctx context.Context, query string) (result Result, ok bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, false
	}

	text, err := h.generate(ctx, query)
	if err != nil {
		slog.Default().Warn("Failed to answer the question",
			"attempts", h.policy.Attempts(),
			"query", query,
			"error", err)
		return Result{Err: ErrUnavailable}, true
	}
	return Result{Text: text}, true
}

// AskAsync runs Ask on its own goroutine. The channel yields one result and
// is closed; for a blank query it is closed without a value.
func (h *Handler) AskAsync(ctx context.Context, query string) <-chan Result {
	results := make(chan Result, 1)
	if strings.TrimSpace(query) == "" {
		close(results)
		return results
	}

	go func() {
		defer close(results)
		if result, ok := h.Ask(ctx, query); ok {
			results <- result
		}
	}()
	return results
}

func (h *Handler) generate(ctx context.Context, query string) (string, error) {
	request := inference.GenerateRequest{
		Query:             query,
		SystemInstruction: h.systemInstruction,
	}

	var text string
	err := retry.Do(
		func() error {
			response, err := h.client.Generate(ctx, request)
			if err != nil {
				if !inference.IsTransient(err) && ctx.Err() == nil {
					slog.Default().Warn("Unexpected error from the inference client, will retry",
						"error", err)
				}
				return err
			}
			if response.Text == "" {
				return inference.ErrEmptyResponse
			}
			text = response.Text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(h.policy.Attempts()),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			delay := h.policy.Delay(n)
			slog.Default().Info("Retrying the question",
				"attempt", n+1,
				"backoff", delay,
				"lastError", err)
			if h.observer != nil {
				h.observer(n, delay, err)
			}
			return delay
		}),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}
