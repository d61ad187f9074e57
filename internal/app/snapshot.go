package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"registry-pruner/internal/shared"
	"registry-pruner/internal/types"
)

type SnapshotRequest struct {
	Repositories []string
}

// SnapshotRepositories captures the current images of each repository in the
// format served by the file registry backend. Missing repositories are left
// out; any other listing failure aborts, since a partial snapshot would
// evaluate differently from the live registry.
func (s Service) SnapshotRepositories(ctx context.Context, req SnapshotRequest) (types.RegistrySnapshotFile, error) {
	repositories := shared.SplitList(req.Repositories)
	if len(repositories) == 0 {
		return types.RegistrySnapshotFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no repositories configured")
	}
	if s.Registry == nil {
		return types.RegistrySnapshotFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("registry backend is not configured")
	}
	snapshot := types.RegistrySnapshotFile{Repositories: map[string][]types.ImageRecord{}}
	for _, repository := range repositories {
		if err := ctx.Err(); err != nil {
			return types.RegistrySnapshotFile{}, err
		}
		logger := s.Logger.With().Str("repository", repository).Logger()
		images, err := s.Registry.ListImages(ctx, repository)
		if err != nil {
			if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
				logger.Warn().Err(err).Msg("repository not found, left out of snapshot")
				continue
			}
			return types.RegistrySnapshotFile{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to snapshot repository " + repository).
				WithCause(err)
		}
		records := make([]types.ImageRecord, len(images))
		copy(records, images)
		snapshot.Repositories[repository] = records
		logger.Info().Int("images", len(records)).Msg("repository captured")
	}
	return snapshot, nil
}
