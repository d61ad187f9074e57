package core

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"registry-pruner/internal/types"
)

func TestClassifyTag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected types.ParsedTag
	}{
		{
			name:     "ci develop build",
			tag:      "c-develop-27",
			expected: types.ParsedTag{Raw: "c-develop-27", Kind: types.TagKindBranchBuild, Branch: "develop", BuildNo: 27},
		},
		{
			name:     "master build",
			tag:      "master-25",
			expected: types.ParsedTag{Raw: "master-25", Kind: types.TagKindBranchBuild, Branch: "master", BuildNo: 25},
		},
		{
			name:     "hyphenated feature branch",
			tag:      "c-cw-822-3",
			expected: types.ParsedTag{Raw: "c-cw-822-3", Kind: types.TagKindBranchBuild, Branch: "cw-822", BuildNo: 3},
		},
		{
			name:     "feature branch without prefix",
			tag:      "cw-822-3",
			expected: types.ParsedTag{Raw: "cw-822-3", Kind: types.TagKindBranchBuild, Branch: "cw-822", BuildNo: 3},
		},
		{
			name:     "bare prefix falls back to literal branch",
			tag:      "c-5",
			expected: types.ParsedTag{Raw: "c-5", Kind: types.TagKindBranchBuild, Branch: "c", BuildNo: 5},
		},
		{
			name:     "version with prefix",
			tag:      "c-12.22.2",
			expected: types.ParsedTag{Raw: "c-12.22.2", Kind: types.TagKindVersion, Major: 12, Minor: 22, Patch: 2},
		},
		{
			name:     "version",
			tag:      "19.1.28",
			expected: types.ParsedTag{Raw: "19.1.28", Kind: types.TagKindVersion, Major: 19, Minor: 1, Patch: 28},
		},
		{
			name:     "release candidate",
			tag:      "12.9.8-rc-4",
			expected: types.ParsedTag{Raw: "12.9.8-rc-4", Kind: types.TagKindReleaseCandidate, Major: 12, Minor: 9, Patch: 8, BuildNo: 4},
		},
		{
			name:     "release candidate with prefix",
			tag:      "c-19.2.6-rc-12",
			expected: types.ParsedTag{Raw: "c-19.2.6-rc-12", Kind: types.TagKindReleaseCandidate, Major: 19, Minor: 2, Patch: 6, BuildNo: 12},
		},
		{
			name:     "version with build suffix is a branch build",
			tag:      "12.1.0-37",
			expected: types.ParsedTag{Raw: "12.1.0-37", Kind: types.TagKindBranchBuild, Branch: "12.1.0", BuildNo: 37},
		},
		{
			name:     "free form tag",
			tag:      "NotOrphan",
			expected: types.ParsedTag{Raw: "NotOrphan", Kind: types.TagKindUnparseable},
		},
		{
			name:     "rc without version",
			tag:      "myTag-rc-34",
			expected: types.ParsedTag{Raw: "myTag-rc-34", Kind: types.TagKindUnparseable},
		},
		{
			name:     "branch mentioning rc",
			tag:      "circle-3",
			expected: types.ParsedTag{Raw: "circle-3", Kind: types.TagKindUnparseable},
		},
		{
			name:     "two component version",
			tag:      "12.1",
			expected: types.ParsedTag{Raw: "12.1", Kind: types.TagKindUnparseable},
		},
		{
			name:     "four component version",
			tag:      "12.1.0.4",
			expected: types.ParsedTag{Raw: "12.1.0.4", Kind: types.TagKindUnparseable},
		},
		{
			name:     "empty version component",
			tag:      "12..4",
			expected: types.ParsedTag{Raw: "12..4", Kind: types.TagKindUnparseable},
		},
		{
			name:     "trailing hyphen",
			tag:      "develop-",
			expected: types.ParsedTag{Raw: "develop-", Kind: types.TagKindUnparseable},
		},
		{
			name:     "build number overflow",
			tag:      "develop-99999999999999999999999",
			expected: types.ParsedTag{Raw: "develop-99999999999999999999999", Kind: types.TagKindUnparseable},
		},
		{
			name:     "empty tag",
			tag:      "",
			expected: types.ParsedTag{Raw: "", Kind: types.TagKindUnparseable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTag(tt.tag)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Fatalf("unexpected classification (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyTagsSkipsDigestOnlyRecords(t *testing.T) {
	images := []types.ImageRecord{
		{Tag: "develop-1", Digest: "sha256:aaa"},
		{Digest: "sha256:bbb"},
		{Tag: "NotOrphan"},
	}
	got := ClassifyTags(images)
	assert.Len(t, got, 2)
	assert.Equal(t, types.TagKindBranchBuild, got[0].Kind)
	assert.Equal(t, types.TagKindUnparseable, got[1].Kind)
}

func TestClassifyTagIsTotal(t *testing.T) {
	kinds := map[types.TagKind]struct{}{
		types.TagKindBranchBuild:      {},
		types.TagKindVersion:          {},
		types.TagKindReleaseCandidate: {},
		types.TagKindUnparseable:      {},
	}
	rapid.Check(t, func(t *rapid.T) {
		tag := rapid.String().Draw(t, "tag")
		first := ClassifyTag(tag)
		if _, ok := kinds[first.Kind]; !ok {
			t.Fatalf("unknown kind %q for %q", first.Kind, tag)
		}
		if first.Raw != tag {
			t.Fatalf("raw tag not preserved: %q != %q", first.Raw, tag)
		}
		if diff := cmp.Diff(first, ClassifyTag(tag)); diff != "" {
			t.Fatalf("classification not deterministic:\n%s", diff)
		}
	})
}

func TestClassifyTagRecoversBranchBuilds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		branch := rapid.StringMatching(`[abd-qs-z][abd-qs-z0-9_-]{0,12}`).Draw(t, "branch")
		buildNo := rapid.IntRange(0, 100000).Draw(t, "buildNo")
		prefixed := rapid.Bool().Draw(t, "prefixed")
		tag := fmt.Sprintf("%s-%d", branch, buildNo)
		if prefixed {
			tag = ciPrefix + tag
		}
		got := ClassifyTag(tag)
		if got.Kind != types.TagKindBranchBuild || got.Branch != branch || got.BuildNo != buildNo {
			t.Fatalf("tag %q classified as %+v", tag, got)
		}
	})
}

func TestClassifyTagRecoversReleases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := rapid.IntRange(0, 99).Draw(t, "major")
		minor := rapid.IntRange(0, 12).Draw(t, "minor")
		patch := rapid.IntRange(0, 500).Draw(t, "patch")
		version := fmt.Sprintf("%d.%d.%d", major, minor, patch)
		if got := ClassifyTag(version); got.Kind != types.TagKindVersion {
			t.Fatalf("version %q classified as %s", version, got.Kind)
		}
		buildNo := rapid.IntRange(0, 50).Draw(t, "buildNo")
		candidate := fmt.Sprintf("%s-rc-%d", version, buildNo)
		got := ClassifyTag(candidate)
		if got.Kind != types.TagKindReleaseCandidate || got.BuildNo != buildNo || got.Minor != minor {
			t.Fatalf("release candidate %q classified as %+v", candidate, got)
		}
	})
}
