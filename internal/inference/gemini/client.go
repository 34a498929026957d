package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/neotutor/internal/inference"
	"resty.dev/v3"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-preview-09-2025"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the generateContent REST endpoint once per Generate call.
type Client struct {
	httpClient *resty.Client
	model      string
}

var _ inference.Client = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetQueryParam("key", cfg.APIKey)
	client.SetTimeout(cfg.Timeout)
	// Retries are owned by tutor.Handler.
	client.SetRetryCount(0)

	return &Client{
		httpClient: client,
		model:      cfg.Model,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type GenerateContentRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text returns candidates[0].content.parts[0].text, or "" when any step of
// that path is missing.
func (r GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	return content.Parts[0].Text
}

func newGenerateContentRequest(params inference.GenerateRequest) GenerateContentRequest {
	request := GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: params.Query}}},
		},
	}
	if params.SystemInstruction != "" {
		request.SystemInstruction = &Content{
			Parts: []Part{{Text: params.SystemInstruction}},
		}
	}
	return request
}

// Generate implements the inference.Client interface
func (client *Client) Generate(
	ctx context.Context,
	params inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	requestBody := newGenerateContentRequest(params)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetPathParam("model", client.model).
		SetBody(requestBody).
		Post("/models/{model}:generateContent")
	if err != nil {
		return inference.GenerateResponse{}, &inference.TransportError{Err: fmt.Errorf("httpClient.Post > %w", err)}
	}
	if !response.IsSuccess() {
		return inference.GenerateResponse{}, &inference.ServiceError{
			StatusCode: response.StatusCode(),
			Body:       response.String(),
		}
	}

	var decoded GenerateContentResponse
	if err := json.Unmarshal(response.Bytes(), &decoded); err != nil {
		return inference.GenerateResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w: %w", response.String(), inference.ErrEmptyResponse, err)
	}

	text := decoded.Text()
	if text == "" {
		return inference.GenerateResponse{}, fmt.Errorf("%w: %s", inference.ErrEmptyResponse, response.String())
	}
	slog.Default().Debug("gemini response",
		"model", client.model,
		"usage", decoded.UsageMetadata,
	)

	result := inference.GenerateResponse{
		Text:  text,
		Model: client.model,
	}
	if decoded.ModelVersion != "" {
		result.Model = decoded.ModelVersion
	}
	if usage := decoded.UsageMetadata; usage != nil {
		result.Usage = inference.Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		}
	}
	return result, nil
}
