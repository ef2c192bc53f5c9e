package ports

import (
	"context"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

// HistoryRepository persists the full session list, newest first.
type HistoryRepository interface {
	Load(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, sessions []domain.Session) error
}
