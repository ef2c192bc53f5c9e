package gemini

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
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash-preview-image-generation"

	maxResponseBytes = 64 << 20
)

// Client generates images through the Gemini generateContent API. The
// backend returns a single image per call regardless of the requested count,
// so Generate loops and concatenates to honor it.
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

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string, credential domain.Credential, count int) ([]domain.Image, error) {
	images := make([]domain.Image, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, c.otherError(err.Error())
		}

		image, err := c.generateOne(ctx, prompt, credential)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}

	return images, nil
}

func (c *Client) generateOne(ctx context.Context, prompt string, credential domain.Credential) (domain.Image, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	})
	if err != nil {
		return domain.Image{}, c.otherError(fmt.Sprintf("encode generation request: %v", err))
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Image{}, c.otherError(fmt.Sprintf("create generation request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", credential.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Image{}, c.otherError(fmt.Sprintf("request generation: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Image{}, c.classify(resp.StatusCode, decodeAPIError(resp.Body))
	}

	var payload generateContentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.Image{}, c.otherError(fmt.Sprintf("decode generation response: %v", err))
	}

	if payload.PromptFeedback != nil && payload.PromptFeedback.BlockReason != "" {
		return domain.Image{}, c.rejectionError(fmt.Sprintf("prompt blocked: %s", payload.PromptFeedback.BlockReason))
	}

	for _, candidate := range payload.Candidates {
		if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
			return domain.Image{}, c.rejectionError(fmt.Sprintf("generation blocked: %s", candidate.FinishReason))
		}
		for _, candidatePart := range candidate.Content.Parts {
			if candidatePart.InlineData != nil && candidatePart.InlineData.Data != "" {
				return domain.Image{
					B64:      candidatePart.InlineData.Data,
					MimeType: candidatePart.InlineData.MimeType,
				}, nil
			}
		}
	}

	return domain.Image{}, c.otherError("generation response contains no image")
}

func decodeAPIError(body io.Reader) errorResponse {
	var payload errorResponse
	_ = json.NewDecoder(io.LimitReader(body, maxResponseBytes)).Decode(&payload)
	return payload
}

func (c *Client) otherError(message string) *domain.GenerationError {
	return &domain.GenerationError{
		Kind:     domain.FailureOther,
		Provider: domain.ProviderGemini,
		Message:  message,
	}
}

func (c *Client) rejectionError(message string) *domain.GenerationError {
	return &domain.GenerationError{
		Kind:     domain.FailurePromptRejected,
		Provider: domain.ProviderGemini,
		Message:  message,
	}
}
