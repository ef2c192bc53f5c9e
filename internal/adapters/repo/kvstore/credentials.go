package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

// CredentialsKey is the fixed storage key the credential list lives under.
const CredentialsKey = "credentials"

// CredentialRepository serializes the credential list as a versioned TOML
// document through the injected key-value store. Absent or malformed stored
// data degrades to an empty list with a warning rather than an error.
type CredentialRepository struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

var _ ports.CredentialRepository = (*CredentialRepository)(nil)

func NewCredentialRepository(store ports.KeyValueStore, logger *slog.Logger) *CredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &CredentialRepository{store: store, logger: logger}
}

func (r *CredentialRepository) Load(ctx context.Context) ([]domain.Credential, error) {
	data, err := r.store.Get(ctx, CredentialsKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.Credential{}, nil
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	var file credentialsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		r.logger.Warn("stored credentials are malformed, starting empty", "error", err)
		return []domain.Credential{}, nil
	}
	if err := file.validateVersion(); err != nil {
		return nil, err
	}
	file.applyDefaults()

	credentials := make([]domain.Credential, 0, len(file.Credentials))
	for _, entry := range file.Credentials {
		credentials = append(credentials, domain.Credential{
			Key:      entry.Key,
			Provider: domain.Provider(entry.Provider),
			Status:   domain.CredentialStatus(entry.Status),
		})
	}

	return credentials, nil
}

func (r *CredentialRepository) Save(ctx context.Context, credentials []domain.Credential) error {
	file := credentialsFileSchema{Version: currentSchemaVersion}
	file.Credentials = make([]credentialSchema, 0, len(credentials))
	for _, credential := range credentials {
		file.Credentials = append(file.Credentials, credentialSchema{
			Key:      credential.Key,
			Provider: string(credential.Provider),
			Status:   string(credential.Status),
		})
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := r.store.Set(ctx, CredentialsKey, data); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	return nil
}
