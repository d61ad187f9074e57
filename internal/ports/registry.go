package ports

import (
	"context"

	"registry-pruner/internal/types"
)

// RegistryPort lists and deletes container images of a repository.
// ListImages returns a CodeNotFound error when the repository does not exist.
type RegistryPort interface {
	ListImages(ctx context.Context, repository string) ([]types.ImageRecord, error)
	DeleteByTag(ctx context.Context, repository string, tag string) error
	DeleteByDigest(ctx context.Context, repository string, digest string) error
}
