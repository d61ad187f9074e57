package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"registry-pruner/internal/types"
)

func tagged(tags ...string) []types.ImageRecord {
	images := make([]types.ImageRecord, 0, len(tags))
	for i, tag := range tags {
		images = append(images, types.ImageRecord{Tag: tag, Digest: fmt.Sprintf("sha256:%04d", i)})
	}
	return images
}

func TestEvaluatorCombinesRules(t *testing.T) {
	var tags []string
	tags = append(tags, numberedTags("develop-%d", 1, 12)...)
	tags = append(tags, "gone-4", "gone-5", "feature-1", "feature-2")
	images := append(tagged(tags...), types.ImageRecord{Digest: "sha256:orphan"})

	evaluator := NewEvaluator(types.DefaultRetentionPolicy(), fixedClock(2026, time.October, 14), zerolog.Nop())
	plan := evaluator.Evaluate(context.Background(), "svc", images, []string{"develop", "feature"})

	expected := types.DeletionPlan{
		Repository: "svc",
		Tags: []types.TagDeletion{
			{Tag: "gone-4", Reason: types.DeletionReasonClosedBranch},
			{Tag: "gone-5", Reason: types.DeletionReasonClosedBranch},
			{Tag: "develop-1", Reason: types.DeletionReasonOldBuild},
			{Tag: "develop-2", Reason: types.DeletionReasonOldBuild},
			{Tag: "feature-1", Reason: types.DeletionReasonOldBuild},
		},
		Digests: []types.DigestDeletion{
			{Digest: "sha256:orphan", Reason: types.DeletionReasonOrphan},
		},
	}
	if diff := cmp.Diff(expected, plan); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
}

func TestEvaluatorClosedBranchTakesPrecedence(t *testing.T) {
	evaluator := NewEvaluator(types.DefaultRetentionPolicy(), fixedClock(2026, time.October, 14), zerolog.Nop())
	plan := evaluator.Evaluate(context.Background(), "svc", tagged("gone-1", "gone-2"), []string{})

	require.Len(t, plan.Tags, 2)
	for _, item := range plan.Tags {
		assert.Equal(t, types.DeletionReasonClosedBranch, item.Reason)
	}
}

func TestEvaluatorSkipsReconciliationWithoutBranches(t *testing.T) {
	evaluator := NewEvaluator(types.DefaultRetentionPolicy(), fixedClock(2026, time.October, 14), zerolog.Nop())
	plan := evaluator.Evaluate(context.Background(), "svc", tagged("gone-1", "gone-2"), nil)

	require.Equal(t, []types.TagDeletion{{Tag: "gone-1", Reason: types.DeletionReasonOldBuild}}, plan.Tags)
	assert.Empty(t, plan.Digests)
}

func TestEvaluatorEmptySnapshot(t *testing.T) {
	evaluator := NewEvaluator(types.DefaultRetentionPolicy(), fixedClock(2026, time.October, 14), zerolog.Nop())
	plan := evaluator.Evaluate(context.Background(), "svc", nil, []string{"develop"})
	assert.True(t, plan.Empty())
}

func TestEvaluatorIsIdempotent(t *testing.T) {
	tagGen := rapid.OneOf(
		rapid.StringMatching(`(c-)?(develop|master|feat[a-z]{0,3})-[0-9]{1,3}`),
		rapid.StringMatching(`(c-)?2[0-9]\.[0-9]{1,2}\.[0-9]{1,2}`),
		rapid.StringMatching(`2[0-9]\.[0-9]{1,2}\.[0-9]-rc-[0-9]{1,2}`),
		rapid.StringMatching(`[A-Za-z]{1,8}`),
	)
	rapid.Check(t, func(t *rapid.T) {
		tags := rapid.SliceOfDistinct(tagGen, func(s string) string { return s }).Draw(t, "tags")
		active := rapid.SliceOf(rapid.SampledFrom([]string{"develop", "master", "feat", "feata", "featb"})).Draw(t, "active")
		images := tagged(tags...)
		if rapid.Bool().Draw(t, "orphan") {
			images = append(images, types.ImageRecord{Digest: "sha256:orphan"})
		}

		evaluator := NewEvaluator(types.DefaultRetentionPolicy(), fixedClock(2026, time.October, 14), zerolog.Nop())
		first := evaluator.Evaluate(context.Background(), "svc", images, active)
		second := evaluator.Evaluate(context.Background(), "svc", images, active)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("evaluation not idempotent:\n%s", diff)
		}

		seen := map[string]struct{}{}
		for _, item := range first.Tags {
			if _, dup := seen[item.Tag]; dup {
				t.Fatalf("tag %q planned twice", item.Tag)
			}
			seen[item.Tag] = struct{}{}
		}
	})
}
