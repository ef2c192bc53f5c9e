package ports

import (
	"context"

	"github.com/bnema/bulkimg-cli/internal/domain"
)

// ImageGenerator is the uniform gateway to one image-generation backend.
// Implementations normalize per-call image-count differences (some backends
// produce N images per call, others one per call regardless of count) and
// classify every failure into a domain.GenerationError.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, credential domain.Credential, count int) ([]domain.Image, error)
}
