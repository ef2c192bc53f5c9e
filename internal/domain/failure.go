package domain

import (
	"errors"
	"fmt"
)

// FailureKind buckets provider failures for the retry policy. Every failure a
// gateway reports belongs to exactly one kind.
type FailureKind string

const (
	// FailurePromptRejected means the provider refused the prompt content
	// itself. Retrying with another credential cannot help.
	FailurePromptRejected FailureKind = "prompt_rejected"
	// FailureRateLimited means the credential hit a quota or throughput
	// limit. The credential is degraded and the prompt retried elsewhere
	// after a cool-down.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureOther covers invalid credentials, transport errors and
	// malformed responses. The credential is degraded and the prompt
	// retried elsewhere without a cool-down.
	FailureOther FailureKind = "other"
	// FailureExhausted is the synthetic outcome kind recorded when no
	// credential succeeded for a prompt.
	FailureExhausted FailureKind = "exhausted"
)

// GenerationError is the typed failure a provider gateway returns. Gateways
// classify their raw errors into a kind; downstream code switches on the kind
// and never inspects provider response shapes.
type GenerationError struct {
	Kind     FailureKind
	Provider Provider
	Message  string
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// ClassifyFailure extracts the failure kind from a gateway error. Anything
// that is not a GenerationError, including context cancellation surfaced by
// the HTTP client, counts as FailureOther.
func ClassifyFailure(err error) FailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return FailureOther
}
