package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"registry-pruner/internal/core"
	"registry-pruner/internal/shared"
	"registry-pruner/internal/types"
)

// PruneRepositories evaluates each repository in configured order and, in
// apply mode, executes its deletion plan. Failures are recorded per
// repository; only an invalid request or cancellation ends the run early.
func (s Service) PruneRepositories(ctx context.Context, req PruneRequest) (PruneResult, error) {
	repositories := shared.SplitList(req.Repositories)
	if len(repositories) == 0 {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("no repositories configured")
	}
	if s.Registry == nil {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("registry backend is not configured")
	}
	evaluator := core.NewEvaluator(s.Policy, s.Clock, s.Logger)
	result := PruneResult{Apply: req.Apply}
	for _, repository := range repositories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Reports = append(result.Reports, s.pruneRepository(ctx, evaluator, repository, req.Apply))
	}
	return result, nil
}

func (s Service) pruneRepository(ctx context.Context, evaluator core.Evaluator, repository string, apply bool) types.RepositoryReport {
	logger := s.Logger.With().Str("repository", repository).Logger()
	report := types.RepositoryReport{Repository: repository}

	images, err := s.Registry.ListImages(ctx, repository)
	if err != nil {
		report.Err = err
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			logger.Error().Err(err).Msg("repository not found, skipping")
			report.Skipped = true
			return report
		}
		logger.Error().Err(err).Msg("failed to list images, treating repository as empty")
		images = nil
	}
	report.ImageCount = len(images)
	logger.Info().Int("images", len(images)).Msg("images listed")

	active := s.activeBranches(ctx, logger, repository)
	report.BranchesLoaded = active != nil

	report.Plan = evaluator.Evaluate(ctx, repository, images, active)
	s.execute(ctx, logger, apply, &report)

	counts := report.Plan.CountByReason()
	logger.Info().
		Int("images", report.ImageCount).
		Int(string(types.DeletionReasonClosedBranch), counts[types.DeletionReasonClosedBranch]).
		Int(string(types.DeletionReasonOldBuild), counts[types.DeletionReasonOldBuild]).
		Int(string(types.DeletionReasonOrphan), counts[types.DeletionReasonOrphan]).
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Bool("apply", apply).
		Msg("repository evaluated")
	return report
}

// activeBranches returns nil when branch reconciliation has to be skipped.
func (s Service) activeBranches(ctx context.Context, logger zerolog.Logger, repository string) []string {
	if s.Branches == nil {
		logger.Warn().Msg("no branch source configured, skipping closed branch detection")
		return nil
	}
	branches, err := s.Branches.ActiveBranches(ctx, repository)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list branches, skipping closed branch detection")
		return nil
	}
	if branches == nil {
		branches = []string{}
	}
	logger.Debug().Int("branches", len(branches)).Msg("active branches listed")
	return branches
}

// execute logs every decision and, in apply mode, performs it. A failed
// deletion is logged and the next decision proceeds.
func (s Service) execute(ctx context.Context, logger zerolog.Logger, apply bool, report *types.RepositoryReport) {
	for _, item := range report.Plan.Tags {
		entry := logger.With().Str("tag", item.Tag).Str("reason", string(item.Reason)).Logger()
		s.executeOne(ctx, entry, apply, report, func() error {
			return s.Registry.DeleteByTag(ctx, report.Repository, item.Tag)
		})
	}
	for _, item := range report.Plan.Digests {
		entry := logger.With().Str("digest", item.Digest).Str("reason", string(item.Reason)).Logger()
		s.executeOne(ctx, entry, apply, report, func() error {
			return s.Registry.DeleteByDigest(ctx, report.Repository, item.Digest)
		})
	}
}

func (s Service) executeOne(ctx context.Context, logger zerolog.Logger, apply bool, report *types.RepositoryReport, remove func() error) {
	if !apply {
		logger.Info().Msg("would have deleted")
		return
	}
	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("delete failed")
		report.Failed++
		return
	}
	logger.Info().Msg("deleting")
	if err := remove(); err != nil {
		logger.Error().Err(err).Msg("delete failed")
		report.Failed++
		return
	}
	logger.Info().Msg("deleted")
	report.Deleted++
}
