package tutor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/at-ishikawa/neotutor/internal/inference"
	"github.com/at-ishikawa/neotutor/internal/inference/gemini"
	mock_inference "github.com/at-ishikawa/neotutor/internal/mocks/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// testUnit keeps the 2^k * 1000 schedule while the whole test suite waits
// at most a few dozen milliseconds.
const testUnit = time.Microsecond

func testPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, TimeUnit: testUnit}
}

type retryRecord struct {
	attempts []uint
	delays   []time.Duration
}

func (r *retryRecord) observe(attempt uint, delay time.Duration, _ error) {
	r.attempts = append(r.attempts, attempt)
	r.delays = append(r.delays, delay)
}

func TestHandler_Ask(t *testing.T) {
	transportErr := &inference.TransportError{Err: errors.New("connection refused")}

	tests := []struct {
		name     string
		query    string
		failures int
		failure  error
		// emptyText makes failing attempts return a response without text
		emptyText bool

		wantQuery  string
		wantCalls  int
		wantText   string
		wantErr    error
		wantDelays []time.Duration
	}{
		{
			name:       "succeeds on the first attempt",
			query:      "Photosynthesis",
			wantQuery:  "Photosynthesis",
			wantCalls:  1,
			wantText:   "Plants eat sunlight! 🌞",
			wantDelays: nil,
		},
		{
			name:      "query is trimmed before sending",
			query:     "  Photosynthesis\n",
			wantQuery: "Photosynthesis",
			wantCalls: 1,
			wantText:  "Plants eat sunlight! 🌞",
		},
		{
			name:      "transport errors three times then success",
			query:     "Algebra",
			failures:  3,
			failure:   transportErr,
			wantQuery: "Algebra",
			wantCalls: 4,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
				2000 * testUnit,
				4000 * testUnit,
			},
		},
		{
			name:      "service error counts toward the budget",
			query:     "Fractions",
			failures:  1,
			failure:   &inference.ServiceError{StatusCode: http.StatusInternalServerError},
			wantQuery: "Fractions",
			wantCalls: 2,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
			},
		},
		{
			name:      "empty response is retried like a transport error",
			query:     "Fractions",
			failures:  2,
			failure:   fmt.Errorf("%w: {}", inference.ErrEmptyResponse),
			wantQuery: "Fractions",
			wantCalls: 3,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
				2000 * testUnit,
			},
		},
		{
			name:      "response without text and without error is a failure",
			query:     "Fractions",
			failures:  1,
			emptyText: true,
			wantQuery: "Fractions",
			wantCalls: 2,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
			},
		},
		{
			name:      "unexpected errors are retried too",
			query:     "Fractions",
			failures:  1,
			failure:   errors.New("boom"),
			wantQuery: "Fractions",
			wantCalls: 2,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
			},
		},
		{
			name:      "succeeds on the last retry",
			query:     "Gravity",
			failures:  5,
			failure:   transportErr,
			wantQuery: "Gravity",
			wantCalls: 6,
			wantText:  "Plants eat sunlight! 🌞",
			wantDelays: []time.Duration{
				1000 * testUnit,
				2000 * testUnit,
				4000 * testUnit,
				8000 * testUnit,
				16000 * testUnit,
			},
		},
		{
			name:      "always failing exhausts six attempts",
			query:     "Gravity",
			failures:  6,
			failure:   transportErr,
			wantQuery: "Gravity",
			wantCalls: 6,
			wantErr:   ErrUnavailable,
			wantDelays: []time.Duration{
				1000 * testUnit,
				2000 * testUnit,
				4000 * testUnit,
				8000 * testUnit,
				16000 * testUnit,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockClient := mock_inference.NewMockClient(ctrl)

			wantRequest := inference.GenerateRequest{
				Query:             tt.wantQuery,
				SystemInstruction: DefaultSystemInstruction,
			}
			calls := 0
			mockClient.EXPECT().
				Generate(gomock.Any(), wantRequest).
				DoAndReturn(func(ctx context.Context, params inference.GenerateRequest) (inference.GenerateResponse, error) {
					calls++
					if calls <= tt.failures {
						if tt.emptyText {
							return inference.GenerateResponse{Model: "test-model"}, nil
						}
						return inference.GenerateResponse{}, tt.failure
					}
					return inference.GenerateResponse{Text: "Plants eat sunlight! 🌞"}, nil
				}).
				Times(tt.wantCalls)

			record := &retryRecord{}
			handler := New(mockClient,
				WithPolicy(testPolicy()),
				WithRetryObserver(record.observe),
			)

			got, ok := handler.Ask(context.Background(), tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantDelays, record.delays)
			for i, attempt := range record.attempts {
				assert.Equal(t, uint(i), attempt)
			}

			if tt.wantErr != nil {
				assert.False(t, got.OK())
				assert.ErrorIs(t, got.Err, tt.wantErr)
				assert.Equal(t, FallbackMessage, got.Err.Error())
				assert.Empty(t, got.Text)
				return
			}
			assert.True(t, got.OK())
			assert.Equal(t, tt.wantText, got.Text)
		})
	}
}

func TestHandler_Ask_BlankQuery(t *testing.T) {
	for _, query := range []string{"", "  ", "\t\n ", "　"} {
		t.Run(fmt.Sprintf("%q", query), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// No expectations: any call fails the test.
			mockClient := mock_inference.NewMockClient(ctrl)
			record := &retryRecord{}

			handler := New(mockClient, WithPolicy(testPolicy()), WithRetryObserver(record.observe))
			got, ok := handler.Ask(context.Background(), query)

			assert.False(t, ok)
			assert.Equal(t, Result{}, got)
			assert.Empty(t, record.delays)
		})
	}
}

func TestHandler_Ask_SystemInstruction(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_inference.NewMockClient(ctrl)
	mockClient.EXPECT().
		Generate(gomock.Any(), inference.GenerateRequest{
			Query:             "Volcanoes",
			SystemInstruction: "Answer like a pirate.",
		}).
		Return(inference.GenerateResponse{Text: "Arr, the mountain burps fire! 🌋"}, nil)

	handler := New(mockClient, WithSystemInstruction("Answer like a pirate."))
	got, ok := handler.Ask(context.Background(), "Volcanoes")

	require.True(t, ok)
	assert.Equal(t, Result{Text: "Arr, the mountain burps fire! 🌋"}, got)
}

func TestHandler_Ask_ContextCancelledDuringBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_inference.NewMockClient(ctrl)
	mockClient.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(inference.GenerateResponse{}, &inference.ServiceError{StatusCode: http.StatusServiceUnavailable}).
		Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := New(mockClient,
		WithPolicy(Policy{MaxRetries: DefaultMaxRetries, TimeUnit: time.Millisecond}),
		WithRetryObserver(func(attempt uint, delay time.Duration, err error) {
			cancel()
		}),
	)

	got, ok := handler.Ask(ctx, "Algebra")
	require.True(t, ok)
	assert.ErrorIs(t, got.Err, ErrUnavailable)
}

func TestHandler_Ask_ContextAlreadyCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockClient := mock_inference.NewMockClient(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, ok := New(mockClient, WithPolicy(testPolicy())).Ask(ctx, "Algebra")
	require.True(t, ok)
	assert.ErrorIs(t, got.Err, ErrUnavailable)
}

func TestHandler_AskAsync(t *testing.T) {
	t.Run("delivers one result and closes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockClient := mock_inference.NewMockClient(ctrl)
		mockClient.EXPECT().
			Generate(gomock.Any(), gomock.Any()).
			Return(inference.GenerateResponse{Text: "Plants eat sunlight! 🌞"}, nil)

		results := New(mockClient, WithPolicy(testPolicy())).AskAsync(context.Background(), "Photosynthesis")

		got, open := <-results
		require.True(t, open)
		assert.Equal(t, "Plants eat sunlight! 🌞", got.Text)
		_, open = <-results
		assert.False(t, open)
	})

	t.Run("blank query yields no result", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockClient := mock_inference.NewMockClient(ctrl)

		results := New(mockClient, WithPolicy(testPolicy())).AskAsync(context.Background(), "  ")

		_, open := <-results
		assert.False(t, open)
	})

	t.Run("concurrent questions are independent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockClient := mock_inference.NewMockClient(ctrl)

		var algebraCalls atomic.Int32
		mockClient.EXPECT().
			Generate(gomock.Any(), gomock.Cond(func(params inference.GenerateRequest) bool {
				return params.Query == "Algebra"
			})).
			DoAndReturn(func(ctx context.Context, params inference.GenerateRequest) (inference.GenerateResponse, error) {
				if algebraCalls.Add(1) < 3 {
					return inference.GenerateResponse{}, &inference.TransportError{Err: errors.New("reset")}
				}
				return inference.GenerateResponse{Text: "letters are numbers in disguise 🥸"}, nil
			}).
			Times(3)
		mockClient.EXPECT().
			Generate(gomock.Any(), gomock.Cond(func(params inference.GenerateRequest) bool {
				return params.Query == "Photosynthesis"
			})).
			Return(inference.GenerateResponse{Text: "Plants eat sunlight! 🌞"}, nil).
			Times(1)

		handler := New(mockClient, WithPolicy(testPolicy()))
		algebra := handler.AskAsync(context.Background(), "Algebra")
		photosynthesis := handler.AskAsync(context.Background(), "Photosynthesis")

		assert.Equal(t, Result{Text: "Plants eat sunlight! 🌞"}, <-photosynthesis)
		assert.Equal(t, Result{Text: "letters are numbers in disguise 🥸"}, <-algebra)
	})
}

func TestHandler_Ask_WithGeminiClient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"x is a mystery box 📦"}]}}]}`))
	}))
	defer server.Close()

	client := gemini.NewClient(gemini.Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	defer func() {
		_ = client.Close()
	}()

	record := &retryRecord{}
	handler := New(client, WithPolicy(testPolicy()), WithRetryObserver(record.observe))
	got, ok := handler.Ask(context.Background(), "Algebra")

	require.True(t, ok)
	assert.Equal(t, Result{Text: "x is a mystery box 📦"}, got)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{1000 * testUnit, 2000 * testUnit, 4000 * testUnit}, record.delays)
}
