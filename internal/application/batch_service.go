package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
	"github.com/google/uuid"
)

// DefaultCooldown is the pause after a rate-limit failure before the next
// credential attempt.
const DefaultCooldown = 2 * time.Second

var (
	ErrNoPrompts         = errors.New("no prompts to generate")
	ErrUnknownProvider   = errors.New("no gateway registered for provider")
	ErrInvalidImageCount = errors.New("image count must be between 1 and 4")
	ErrStoppedByUser     = errors.New("stopped by user")
	errPromptInterrupted = errors.New("prompt interrupted")
)

// RunRequest describes one batch run.
type RunRequest struct {
	Prompts    []string
	ImageCount int
	// Provider restricts the run to credentials with that affinity; empty
	// means any active credential.
	Provider domain.Provider
	// OnStatus receives advisory progress messages. May be nil.
	OnStatus func(message string)
}

// RunHandle is the caller's view of a live run. Outcomes delivers exactly one
// outcome per prompt, in prompt order, and closes when the run completes or
// is cancelled. Err reports the terminal run state after Outcomes closes.
type RunHandle struct {
	SessionID string
	Outcomes  <-chan domain.GenerationOutcome

	err *error
}

// Err returns ErrStoppedByUser when the run was cancelled mid-batch, nil
// otherwise. Valid only after Outcomes is drained.
func (h *RunHandle) Err() error {
	if h.err == nil {
		return nil
	}
	return *h.err
}

// BatchService drives a prompt batch through the credential pool: it selects
// a credential, calls the provider gateway, classifies failures, rotates and
// retries, and flushes each resolved prompt to the session history.
type BatchService struct {
	pool     *PoolService
	history  *HistoryService
	gateways map[domain.Provider]ports.ImageGenerator
	clock    ports.Clock
	cooldown time.Duration
	logger   *slog.Logger
}

func NewBatchService(
	pool *PoolService,
	history *HistoryService,
	gateways map[domain.Provider]ports.ImageGenerator,
	clock ports.Clock,
	cooldown time.Duration,
	logger *slog.Logger,
) *BatchService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BatchService{
		pool:     pool,
		history:  history,
		gateways: gateways,
		clock:    clock,
		cooldown: cooldown,
		logger:   logger,
	}
}

// Run validates the request, then processes prompts sequentially on a single
// background task. Cancel the context to stop the run; already-emitted
// outcomes are never rolled back.
func (s *BatchService) Run(ctx context.Context, req RunRequest) (*RunHandle, error) {
	prompts := make([]string, 0, len(req.Prompts))
	for _, prompt := range req.Prompts {
		if strings.TrimSpace(prompt) != "" {
			prompts = append(prompts, prompt)
		}
	}
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}
	if req.ImageCount < 1 || req.ImageCount > 4 {
		return nil, ErrInvalidImageCount
	}
	if req.Provider != "" {
		if _, ok := s.gateways[req.Provider]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
		}
	}

	pool, err := s.pool.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool.ActiveFor(req.Provider)) == 0 {
		return nil, domain.ErrNoActiveCredentials
	}

	outcomes := make(chan domain.GenerationOutcome)
	runErr := new(error)
	handle := &RunHandle{
		SessionID: s.newSessionID(),
		Outcomes:  outcomes,
		err:       runErr,
	}

	go func() {
		defer close(outcomes)
		*runErr = s.process(ctx, req, prompts, pool, handle.SessionID, outcomes)
	}()

	return handle, nil
}

func (s *BatchService) process(
	ctx context.Context,
	req RunRequest,
	prompts []string,
	pool *domain.Pool,
	sessionID string,
	outcomes chan<- domain.GenerationOutcome,
) error {
	session := domain.Session{
		ID:        sessionID,
		CreatedAt: s.clock.Now(),
		Outcomes:  make([]domain.GenerationOutcome, 0, len(prompts)),
	}

	// Carried between prompts so successive prompts do not always hammer
	// the same first credential.
	rotation := 0

	for i, prompt := range prompts {
		if ctx.Err() != nil {
			s.status(req, "stopped by user")
			return ErrStoppedByUser
		}

		s.status(req, fmt.Sprintf("prompt %d/%d: generating", i+1, len(prompts)))

		outcome, nextRotation, err := s.processPrompt(ctx, req, pool, prompt, rotation)
		if err != nil {
			s.status(req, "stopped by user")
			return ErrStoppedByUser
		}
		rotation = nextRotation

		session.Outcomes = append(session.Outcomes, outcome)
		outcomes <- outcome

		if len(outcome.Images) > 0 || outcome.Error != "" {
			s.history.Upsert(ctx, session)
		}
	}

	return nil
}

// processPrompt resolves one prompt against the currently active credential
// set. It returns errPromptInterrupted when cancellation struck before an
// outcome was reached.
func (s *BatchService) processPrompt(
	ctx context.Context,
	req RunRequest,
	pool *domain.Pool,
	prompt string,
	rotation int,
) (domain.GenerationOutcome, int, error) {
	budget := len(pool.ActiveFor(req.Provider))

	for attempts := 0; attempts < budget; attempts++ {
		if ctx.Err() != nil {
			return domain.GenerationOutcome{}, rotation, errPromptInterrupted
		}

		// The active set may shrink as members degrade mid-loop.
		active := pool.ActiveFor(req.Provider)
		if len(active) == 0 {
			return s.exhaustedOutcome(prompt, "all available credentials are rate-limited"), rotation, nil
		}

		credential := active[rotation%len(active)]
		s.status(req, fmt.Sprintf("trying credential %s (%s)", credential.Redacted(), credential.Provider))

		images, err := s.generate(ctx, prompt, credential, req.ImageCount)
		if err == nil {
			// The next prompt starts on the credential that just worked;
			// the index only advances past failing members.
			return domain.GenerationOutcome{Prompt: prompt, Images: images}, rotation, nil
		}

		switch domain.ClassifyFailure(err) {
		case domain.FailurePromptRejected:
			// Not credential-specific: no other credential will help,
			// and the credential stays active.
			s.status(req, "prompt rejected by provider")
			return domain.GenerationOutcome{
				Prompt:      prompt,
				Error:       err.Error(),
				FailureKind: domain.FailurePromptRejected,
			}, rotation, nil

		case domain.FailureRateLimited:
			s.logger.Warn("credential rate limited",
				"credential", credential.Redacted(),
				"provider", credential.Provider,
			)
			s.degrade(ctx, pool, credential)
			s.status(req, fmt.Sprintf("rate limited, cooling down %s", s.cooldown))
			if !s.wait(ctx) {
				return domain.GenerationOutcome{}, rotation, errPromptInterrupted
			}
			rotation++

		default:
			s.logger.Warn("credential failed",
				"credential", credential.Redacted(),
				"provider", credential.Provider,
				"error", err,
			)
			s.degrade(ctx, pool, credential)
			rotation++
		}
	}

	return s.exhaustedOutcome(prompt, "all active API keys failed or are rate limited"), rotation, nil
}

func (s *BatchService) generate(ctx context.Context, prompt string, credential domain.Credential, count int) ([]domain.Image, error) {
	gateway, ok := s.gateways[credential.Provider]
	if !ok {
		return nil, &domain.GenerationError{
			Kind:     domain.FailureOther,
			Provider: credential.Provider,
			Message:  "no gateway registered",
		}
	}

	return gateway.Generate(ctx, prompt, credential, count)
}

func (s *BatchService) degrade(ctx context.Context, pool *domain.Pool, credential domain.Credential) {
	pool.MarkDegraded(credential.Key)
	if err := s.pool.Persist(ctx, pool); err != nil {
		s.logger.Warn("persist degraded credential", "error", err)
	}
}

// wait blocks for the cool-down and reports false when the run was cancelled
// mid-wait.
func (s *BatchService) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(s.cooldown):
		return true
	}
}

func (s *BatchService) exhaustedOutcome(prompt, message string) domain.GenerationOutcome {
	return domain.GenerationOutcome{
		Prompt:      prompt,
		Error:       message,
		FailureKind: domain.FailureExhausted,
	}
}

func (s *BatchService) status(req RunRequest, message string) {
	if req.OnStatus != nil {
		req.OnStatus(message)
	}
}

func (s *BatchService) newSessionID() string {
	stamp := s.clock.Now().UTC().Format("20060102T150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return stamp + "-" + suffix
}
