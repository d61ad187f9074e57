package core

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileClosedBranches(t *testing.T) {
	var tags []string
	tags = append(tags, numberedTags("pw-6532-%d", 0, 4)...)
	tags = append(tags, numberedTags("develop-%d", 6, 18)...)
	tags = append(tags, numberedTags("master-%d", 20, 32)...)
	tags = append(tags, numberedTags("myTag-rc-%d", 34, 35)...)
	tags = append(tags, numberedTags("12.1.0-%d", 37, 38)...)
	tags = append(tags, "c-cr-2")
	active := []string{"pw-123", "cw-123", "develop", "master", "bw-123", "12.1.0", "12.1.0-rc", "mytag-1", "c-pid"}

	got := NewBranchReconciler(zerolog.Nop()).Reconcile(tags, active)

	expected := append(numberedTags("pw-6532-%d", 0, 4), "c-cr-2")
	require.Equal(t, expected, got)
	for _, tag := range tags {
		if tag == "c-cr-2" || len(tag) > 7 && tag[:7] == "pw-6532" {
			continue
		}
		assert.NotContains(t, got, tag)
	}
}

func TestReconcileIsCaseInsensitive(t *testing.T) {
	got := NewBranchReconciler(zerolog.Nop()).Reconcile(
		[]string{"Feature-X-1", "feature-y-2"},
		[]string{"FEATURE-x"},
	)
	require.Equal(t, []string{"feature-y-2"}, got)
}

func TestReconcileSelectsEveryBuildOfClosedBranch(t *testing.T) {
	tags := numberedTags("gone-%d", 1, 20)
	got := NewBranchReconciler(zerolog.Nop()).Reconcile(tags, []string{"develop"})
	require.Equal(t, tags, got)
}

func TestReconcilePrefixedTagMatchesStrippedBranch(t *testing.T) {
	reconciler := NewBranchReconciler(zerolog.Nop())
	assert.Empty(t, reconciler.Reconcile([]string{"c-develop-3", "c-feature-1-7"}, []string{"develop", "feature-1"}))
	assert.Equal(t, []string{"c-feature-1-7"}, reconciler.Reconcile([]string{"c-develop-3", "c-feature-1-7"}, []string{"develop"}))
}

func TestReconcileNoActiveBranchesClosesEverything(t *testing.T) {
	got := NewBranchReconciler(zerolog.Nop()).Reconcile([]string{"develop-1", "12.1.0", "latest"}, []string{})
	require.Equal(t, []string{"develop-1"}, got)
}

func TestReconcileDeduplicatesRepeatedTags(t *testing.T) {
	got := NewBranchReconciler(zerolog.Nop()).Reconcile([]string{"old-1", "old-1", "old-2"}, nil)
	require.Equal(t, []string{"old-1", "old-2"}, got)
}

func TestIsBranchCandidate(t *testing.T) {
	tests := []struct {
		tag      string
		expected bool
	}{
		{tag: "pw-6532-4", expected: true},
		{tag: "c-cr-2", expected: true},
		{tag: "feature_x-9", expected: true},
		{tag: "myTag-rc-34", expected: false},
		{tag: "12.1.0-37", expected: false},
		{tag: "12.1.0", expected: false},
		{tag: "circle-2", expected: false},
		{tag: "latest", expected: false},
		{tag: "-5", expected: false},
		{tag: "develop-", expected: false},
		{tag: "", expected: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.tag), func(t *testing.T) {
			assert.Equal(t, tt.expected, isBranchCandidate(tt.tag))
		})
	}
}

func TestBranchDerivations(t *testing.T) {
	name, ok := prefixStrippedBranch("c-cr-2")
	require.True(t, ok)
	assert.Equal(t, "cr", name)

	name, ok = suffixStrippedBranch("c-cr-2")
	require.True(t, ok)
	assert.Equal(t, "c-cr", name)

	name, ok = prefixStrippedBranch("PW-6532-4")
	require.True(t, ok)
	assert.Equal(t, "pw-6532", name)

	_, ok = suffixStrippedBranch("latest")
	assert.False(t, ok)
}
