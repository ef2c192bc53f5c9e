package gemini

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

// classify buckets an API failure, rejection phrasing first.
func (c *Client) classify(statusCode int, payload errorResponse) *domain.GenerationError {
	message := strings.TrimSpace(payload.Error.Message)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}

	kind := domain.FailureOther
	switch {
	case isPromptRejection(message):
		kind = domain.FailurePromptRejected
	case isRateLimit(statusCode, payload.Error.Status, message):
		kind = domain.FailureRateLimited
	}

	return &domain.GenerationError{
		Kind:     kind,
		Provider: domain.ProviderGemini,
		Message:  message,
	}
}

func isPromptRejection(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "safety") ||
		strings.Contains(lower, "blocked") ||
		strings.Contains(lower, "prohibited content")
}

func isRateLimit(statusCode int, status, message string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if strings.EqualFold(status, "RESOURCE_EXHAUSTED") {
		return true
	}

	lower := strings.ToLower(message)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}
