package core

import (
	"strings"

	"github.com/rs/zerolog"

	"registry-pruner/internal/shared"
)

// BranchReconciler finds tags built from branches that no longer exist in
// version control. Every build of a closed branch is selected, regardless of
// age.
type BranchReconciler struct {
	logger zerolog.Logger
}

func NewBranchReconciler(logger zerolog.Logger) BranchReconciler {
	return BranchReconciler{logger: logger}
}

// Reconcile returns the tags whose branch is absent from active, ordered by
// first appearance in tags.
func (r BranchReconciler) Reconcile(tags []string, active []string) []string {
	activeSet := shared.NormalizeSet(active)

	closed := map[string]struct{}{}
	var closedOrder []string
	for _, tag := range tags {
		if !isBranchCandidate(tag) {
			continue
		}
		name, ok := prefixStrippedBranch(tag)
		if !ok {
			continue
		}
		if _, open := activeSet[name]; open {
			continue
		}
		if _, seen := closed[name]; !seen {
			closed[name] = struct{}{}
			closedOrder = append(closedOrder, name)
		}
	}
	if len(closed) == 0 {
		return nil
	}
	r.logger.Debug().Strs("branches", closedOrder).Msg("closed branches detected")

	var out []string
	selected := map[string]struct{}{}
	for _, tag := range tags {
		if _, dup := selected[tag]; dup {
			continue
		}
		if !belongsToAny(tag, closed) {
			continue
		}
		selected[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// belongsToAny matches a tag against the closed names under both branch
// derivations. They differ only for CI-prefixed tags.
func belongsToAny(tag string, closed map[string]struct{}) bool {
	if name, ok := prefixStrippedBranch(tag); ok {
		if _, hit := closed[name]; hit {
			return true
		}
	}
	if name, ok := suffixStrippedBranch(tag); ok {
		if _, hit := closed[name]; hit {
			return true
		}
	}
	return false
}

// isBranchCandidate accepts <name>-<digits> with name drawn from letters,
// digits, '-' and '_', and no "rc" anywhere in the tag. Versions and release
// candidates never qualify.
func isBranchCandidate(tag string) bool {
	if tag == "" || strings.Contains(tag, "rc") {
		return false
	}
	for i := 0; i < len(tag); i++ {
		if !isBranchChar(tag[i]) {
			return false
		}
	}
	name, _, ok := splitBuildSuffix(tag)
	return ok && name != ""
}

func isBranchChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// prefixStrippedBranch drops the CI prefix, when present, and the trailing
// build number: "c-cr-2" -> "cr", "pw-6532-4" -> "pw-6532".
func prefixStrippedBranch(tag string) (string, bool) {
	body := strings.TrimPrefix(tag, ciPrefix)
	name, _, ok := splitBuildSuffix(body)
	if !ok || name == "" {
		return "", false
	}
	return shared.NormalizeName(name), true
}

// suffixStrippedBranch drops only the trailing build number:
// "c-cr-2" -> "c-cr".
func suffixStrippedBranch(tag string) (string, bool) {
	name, _, ok := splitBuildSuffix(tag)
	if !ok || name == "" {
		return "", false
	}
	return shared.NormalizeName(name), true
}
