package core

import (
	"context"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog"

	"registry-pruner/internal/types"
)

// Evaluator runs every deletion rule over one repository snapshot. It does
// no I/O; the snapshot and the branch list are fetched by the caller.
type Evaluator struct {
	retention  RetentionEngine
	reconciler BranchReconciler
	logger     zerolog.Logger
}

func NewEvaluator(policy types.RetentionPolicy, clock func() time.Time, logger zerolog.Logger) Evaluator {
	return Evaluator{
		retention:  NewRetentionEngine(policy, clock, logger),
		reconciler: NewBranchReconciler(logger),
		logger:     logger,
	}
}

// Evaluate builds the deletion plan for a repository. A nil activeBranches
// means the branch list could not be fetched and reconciliation is skipped;
// an empty non-nil slice means no branch is open.
func (e Evaluator) Evaluate(ctx context.Context, repository string, images []types.ImageRecord, activeBranches []string) types.DeletionPlan {
	assert.NotEmpty(ctx, repository, "repository must be set")

	classified := ClassifyTags(images)
	oldBuilds := e.retention.Evaluate(classified)

	var closedBranch []string
	if activeBranches != nil {
		tags := make([]string, 0, len(classified))
		for _, parsed := range classified {
			tags = append(tags, parsed.Raw)
		}
		closedBranch = e.reconciler.Reconcile(tags, activeBranches)
	}
	orphans := FindOrphans(images)

	plan := BuildDeletionPlan(repository, closedBranch, oldBuilds, orphans)
	e.logger.Debug().
		Str("repository", repository).
		Int("closed_branch", len(closedBranch)).
		Int("old_builds", len(oldBuilds)).
		Int("orphans", len(orphans)).
		Int("tag_deletions", len(plan.Tags)).
		Msg("deletion plan built")
	return plan
}
