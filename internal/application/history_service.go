package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
)

// HistoryService journals run output into the persisted session history.
// The in-memory session list stays authoritative for the life of the
// service; storage failures are logged and do not fail the caller.
type HistoryService struct {
	history ports.HistoryRepository
	logger  *slog.Logger

	loaded   bool
	sessions []domain.Session
}

func NewHistoryService(history ports.HistoryRepository, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}

	return &HistoryService{history: history, logger: logger}
}

// Upsert records the full outcome sequence for a session. A new session is
// inserted at the head so history stays newest first; an existing session
// keeps its position and has its outcomes replaced.
func (s *HistoryService) Upsert(ctx context.Context, session domain.Session) {
	if err := s.load(ctx); err != nil {
		// In-memory state stays authoritative for the rest of the run.
		s.logger.Warn("load history before upsert", "error", err)
		s.loaded = true
	}

	updated := false
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session
			updated = true
			break
		}
	}
	if !updated {
		s.sessions = append([]domain.Session{session}, s.sessions...)
	}

	s.persist(ctx)
}

func (s *HistoryService) Delete(ctx context.Context, sessionID string) error {
	if err := s.load(ctx); err != nil {
		return err
	}

	kept := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if session.ID != sessionID {
			kept = append(kept, session)
		}
	}
	if len(kept) == len(s.sessions) {
		return domain.ErrSessionNotFound
	}
	s.sessions = kept

	s.persist(ctx)

	return nil
}

func (s *HistoryService) Clear(ctx context.Context) error {
	s.loaded = true
	s.sessions = []domain.Session{}

	s.persist(ctx)

	return nil
}

// LoadAll returns every recorded session, newest first.
func (s *HistoryService) LoadAll(ctx context.Context) ([]domain.Session, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, len(s.sessions))
	copy(sessions, s.sessions)

	return sessions, nil
}

func (s *HistoryService) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	if err := s.load(ctx); err != nil {
		return domain.Session{}, err
	}

	for _, session := range s.sessions {
		if session.ID == sessionID {
			return session, nil
		}
	}

	return domain.Session{}, domain.ErrSessionNotFound
}

func (s *HistoryService) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	sessions, err := s.history.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	s.sessions = sessions
	s.loaded = true

	return nil
}

func (s *HistoryService) persist(ctx context.Context) {
	if err := s.history.Save(ctx, s.sessions); err != nil {
		s.logger.Warn("persist history", "error", err)
	}
}
