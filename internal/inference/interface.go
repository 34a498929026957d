package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client generates one answer per call. Implementations must not retry;
// the retry budget belongs to the caller.
type Client interface {
	Generate(ctx context.Context, params GenerateRequest) (GenerateResponse, error)
}

// GenerateRequest is a single question sent with the system instruction
type GenerateRequest struct {
	Query             string `json:"query"`
	SystemInstruction string `json:"system_instruction"`
}

type GenerateResponse struct {
	Text  string
	Model string
	Usage Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

const (
	DefaultMaxRetryAttempts = 5
)
