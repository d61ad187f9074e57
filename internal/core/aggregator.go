package core

import "registry-pruner/internal/types"

// BuildDeletionPlan merges the rule outputs into one plan. A tag flagged by
// several rules appears once, with the reason of the first rule in the order
// closed branch, old build. Orphan digests are kept in their own list.
func BuildDeletionPlan(repository string, closedBranch []string, oldBuilds []string, orphans []string) types.DeletionPlan {
	plan := types.DeletionPlan{Repository: repository}
	seen := map[string]struct{}{}
	appendTags := func(tags []string, reason types.DeletionReason) {
		for _, tag := range tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			plan.Tags = append(plan.Tags, types.TagDeletion{Tag: tag, Reason: reason})
		}
	}
	appendTags(closedBranch, types.DeletionReasonClosedBranch)
	appendTags(oldBuilds, types.DeletionReasonOldBuild)

	digests := map[string]struct{}{}
	for _, digest := range orphans {
		if _, dup := digests[digest]; dup {
			continue
		}
		digests[digest] = struct{}{}
		plan.Digests = append(plan.Digests, types.DigestDeletion{Digest: digest, Reason: types.DeletionReasonOrphan})
	}
	return plan
}
