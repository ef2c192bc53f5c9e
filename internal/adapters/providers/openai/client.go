package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-image-1"

	maxResponseBytes = 64 << 20
)

// Client generates images through the OpenAI images API. The backend
// produces N images in a single call via the request's n field.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ ports.ImageGenerator = (*Client)(nil)

func NewClient(baseURL, model string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: baseURL, model: model, httpClient: httpClient}
}

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string, credential domain.Credential, count int) ([]domain.Image, error) {
	body, err := json.Marshal(generationRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      count,
	})
	if err != nil {
		return nil, c.otherError(fmt.Sprintf("encode generation request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, c.otherError(fmt.Sprintf("create generation request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.otherError(fmt.Sprintf("request generation: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.classify(resp.StatusCode, decodeAPIError(resp.Body))
	}

	var payload generationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, c.otherError(fmt.Sprintf("decode generation response: %v", err))
	}
	if len(payload.Data) == 0 {
		return nil, c.otherError("generation response contains no images")
	}

	images := make([]domain.Image, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.B64JSON == "" {
			return nil, c.otherError("generation response image missing payload")
		}
		images = append(images, domain.Image{B64: entry.B64JSON, MimeType: "image/png"})
	}

	return images, nil
}

func decodeAPIError(body io.Reader) errorResponse {
	var payload errorResponse
	_ = json.NewDecoder(io.LimitReader(body, maxResponseBytes)).Decode(&payload)
	return payload
}

func (c *Client) otherError(message string) *domain.GenerationError {
	return &domain.GenerationError{
		Kind:     domain.FailureOther,
		Provider: domain.ProviderOpenAI,
		Message:  message,
	}
}
