// Package genaisdk implements inference.Client with the official Go SDK for
// the Gemini API.
package genaisdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/at-ishikawa/neotutor/internal/inference"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash-preview-09-2025"

type Config struct {
	APIKey string
	Model  string
	// Endpoint overrides the API endpoint, mainly for tests.
	Endpoint string
}

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genaisdk: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient > %w", err)
	}
	return &Client{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Generate(ctx context.Context, params inference.GenerateRequest) (inference.GenerateResponse, error) {
	model := c.client.GenerativeModel(c.model)
	if params.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(params.SystemInstruction))
	}

	response, err := model.GenerateContent(ctx, genai.Text(params.Query))
	if err != nil {
		return inference.GenerateResponse{}, classifyError(err)
	}

	text := responseText(response)
	if text == "" {
		return inference.GenerateResponse{}, fmt.Errorf("%w: model %s", inference.ErrEmptyResponse, c.model)
	}
	return inference.GenerateResponse{
		Text:  text,
		Model: c.model,
		Usage: responseUsage(response),
	}, nil
}

// responseText is the first part of the first candidate, if it is text.
func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 {
		return ""
	}
	candidate := response.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}
	text, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return ""
	}
	return string(text)
}

func responseUsage(response *genai.GenerateContentResponse) inference.Usage {
	if response == nil || response.UsageMetadata == nil {
		return inference.Usage{}
	}
	return inference.Usage{
		PromptTokens:     int(response.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(response.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(response.UsageMetadata.TotalTokenCount),
	}
}

// classifyError maps SDK errors onto the inference error taxonomy.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if body == "" {
			body = apiErr.Message
		}
		return &inference.ServiceError{StatusCode: apiErr.Code, Body: body}
	}

	var blockedErr *genai.BlockedError
	if errors.As(err, &blockedErr) {
		return fmt.Errorf("%w: %w", inference.ErrEmptyResponse, blockedErr)
	}

	return &inference.TransportError{Err: fmt.Errorf("model.GenerateContent > %w", err)}
}
