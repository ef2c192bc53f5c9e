package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
)

// HistoryKey is the fixed storage key the session history lives under.
const HistoryKey = "history"

// HistoryRepository serializes the session list as JSON through the injected
// key-value store, newest session first.
type HistoryRepository struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(store ports.KeyValueStore, logger *slog.Logger) *HistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &HistoryRepository{store: store, logger: logger}
}

func (r *HistoryRepository) Load(ctx context.Context) ([]domain.Session, error) {
	data, err := r.store.Get(ctx, HistoryKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.Session{}, nil
		}
		return nil, fmt.Errorf("load history: %w", err)
	}

	var sessions []domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		r.logger.Warn("stored history is malformed, starting empty", "error", err)
		return []domain.Session{}, nil
	}

	return sessions, nil
}

func (r *HistoryRepository) Save(ctx context.Context, sessions []domain.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := r.store.Set(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	return nil
}
