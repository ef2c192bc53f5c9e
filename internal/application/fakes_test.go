package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

type inMemoryCredentialRepo struct {
	credentials []domain.Credential
	saves       int
	failSave    error
}

func (r *inMemoryCredentialRepo) Load(_ context.Context) ([]domain.Credential, error) {
	credentials := make([]domain.Credential, len(r.credentials))
	copy(credentials, r.credentials)
	return credentials, nil
}

func (r *inMemoryCredentialRepo) Save(_ context.Context, credentials []domain.Credential) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.saves++
	r.credentials = make([]domain.Credential, len(credentials))
	copy(r.credentials, credentials)
	return nil
}

func (r *inMemoryCredentialRepo) statusOf(key string) domain.CredentialStatus {
	for _, credential := range r.credentials {
		if credential.Key == key {
			return credential.Status
		}
	}
	return ""
}

type inMemoryHistoryRepo struct {
	sessions []domain.Session
	saves    int
	failLoad error
	failSave error
}

func (r *inMemoryHistoryRepo) Load(_ context.Context) ([]domain.Session, error) {
	if r.failLoad != nil {
		return nil, r.failLoad
	}
	sessions := make([]domain.Session, len(r.sessions))
	copy(sessions, r.sessions)
	return sessions, nil
}

func (r *inMemoryHistoryRepo) Save(_ context.Context, sessions []domain.Session) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.saves++
	r.sessions = make([]domain.Session, len(sessions))
	copy(r.sessions, sessions)
	return nil
}

// immediateClock never actually waits; it counts cool-down waits instead.
type immediateClock struct {
	now   time.Time
	waits *int
}

func newImmediateClock() immediateClock {
	return immediateClock{
		now:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		waits: new(int),
	}
}

func (c immediateClock) Now() time.Time { return c.now }

func (c immediateClock) After(_ time.Duration) <-chan time.Time {
	*c.waits++
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type gatewayCall struct {
	Prompt string
	Key    string
	Count  int
}

// scriptedGateway resolves calls through a handler and records every call.
type scriptedGateway struct {
	handler func(prompt string, credential domain.Credential, count int) ([]domain.Image, error)
	calls   []gatewayCall
}

func (g *scriptedGateway) Generate(_ context.Context, prompt string, credential domain.Credential, count int) ([]domain.Image, error) {
	g.calls = append(g.calls, gatewayCall{Prompt: prompt, Key: credential.Key, Count: count})
	return g.handler(prompt, credential, count)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func imagesOf(n int) []domain.Image {
	images := make([]domain.Image, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, domain.Image{B64: "aW1n", MimeType: "image/png"})
	}
	return images
}

func rateLimitErr() *domain.GenerationError {
	return &domain.GenerationError{
		Kind:     domain.FailureRateLimited,
		Provider: domain.ProviderOpenAI,
		Message:  "rate limit exceeded",
	}
}

func rejectionErr() *domain.GenerationError {
	return &domain.GenerationError{
		Kind:     domain.FailurePromptRejected,
		Provider: domain.ProviderOpenAI,
		Message:  "rejected by safety system",
	}
}
