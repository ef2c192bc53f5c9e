package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
)

// PoolService manages the persisted credential pool. The pool itself only
// mutates status; every mutation here is followed by a save.
type PoolService struct {
	credentials ports.CredentialRepository
}

func NewPoolService(credentials ports.CredentialRepository) *PoolService {
	return &PoolService{credentials: credentials}
}

func (s *PoolService) Load(ctx context.Context) (*domain.Pool, error) {
	credentials, err := s.credentials.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential pool: %w", err)
	}

	return domain.NewPool(credentials), nil
}

func (s *PoolService) Add(ctx context.Context, credential domain.Credential) error {
	credential.Key = strings.TrimSpace(credential.Key)
	if credential.Status == "" {
		credential.Status = domain.CredentialActive
	}
	if err := credential.Validate(); err != nil {
		return err
	}

	pool, err := s.Load(ctx)
	if err != nil {
		return err
	}

	for _, member := range pool.Credentials {
		if member.Key == credential.Key {
			return domain.ErrCredentialExists
		}
	}

	pool.Credentials = append(pool.Credentials, credential)

	return s.save(ctx, pool)
}

func (s *PoolService) Remove(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	pool, err := s.Load(ctx)
	if err != nil {
		return err
	}

	kept := make([]domain.Credential, 0, len(pool.Credentials))
	for _, member := range pool.Credentials {
		if member.Key != key {
			kept = append(kept, member)
		}
	}
	if len(kept) == len(pool.Credentials) {
		return domain.ErrCredentialNotFound
	}
	pool.Credentials = kept

	return s.save(ctx, pool)
}

// MarkActive is the manual recovery path for a single degraded credential.
func (s *PoolService) MarkActive(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	pool, err := s.Load(ctx)
	if err != nil {
		return err
	}

	found := false
	for _, member := range pool.Credentials {
		if member.Key == key {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrCredentialNotFound
	}

	pool.MarkActive(key)

	return s.save(ctx, pool)
}

// ResetDegraded reactivates every degraded credential; there is no automatic
// time-based expiry of the degraded status.
func (s *PoolService) ResetDegraded(ctx context.Context) error {
	pool, err := s.Load(ctx)
	if err != nil {
		return err
	}

	pool.ResetDegraded()

	return s.save(ctx, pool)
}

// Persist writes the pool's current member list, used by the orchestrator
// after in-run status mutations.
func (s *PoolService) Persist(ctx context.Context, pool *domain.Pool) error {
	return s.save(ctx, pool)
}

func (s *PoolService) save(ctx context.Context, pool *domain.Pool) error {
	pool.Normalize()
	if err := s.credentials.Save(ctx, pool.Credentials); err != nil {
		return fmt.Errorf("save credential pool: %w", err)
	}

	return nil
}
