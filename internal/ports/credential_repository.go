package ports

import (
	"context"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

type CredentialRepository interface {
	Load(ctx context.Context) ([]domain.Credential, error)
	Save(ctx context.Context, credentials []domain.Credential) error
}
