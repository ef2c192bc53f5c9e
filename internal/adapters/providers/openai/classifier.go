package openai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

// classify buckets an API failure. Prompt rejection is checked before rate
// limiting so a moderation message that happens to mention quotas still
// terminates retry for the prompt.
func (c *Client) classify(statusCode int, payload errorResponse) *domain.GenerationError {
	message := strings.TrimSpace(payload.Error.Message)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}

	kind := domain.FailureOther
	switch {
	case isPromptRejection(payload, message):
		kind = domain.FailurePromptRejected
	case isRateLimit(statusCode, payload, message):
		kind = domain.FailureRateLimited
	}

	return &domain.GenerationError{
		Kind:     kind,
		Provider: domain.ProviderOpenAI,
		Message:  message,
	}
}

func isPromptRejection(payload errorResponse, message string) bool {
	code := strings.ToLower(payload.Error.Code)
	if code == "content_policy_violation" || code == "moderation_blocked" {
		return true
	}

	lower := strings.ToLower(message)
	return strings.Contains(lower, "content policy") ||
		strings.Contains(lower, "safety system") ||
		strings.Contains(lower, "rejected")
}

func isRateLimit(statusCode int, payload errorResponse, message string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if strings.EqualFold(payload.Error.Type, "insufficient_quota") {
		return true
	}

	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota")
}
