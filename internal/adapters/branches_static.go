package adapters

import (
	"context"

	"registry-pruner/internal/ports"
	"registry-pruner/internal/shared"
)

// StaticBranchAdapter reports the same branch set for every repository.
type StaticBranchAdapter struct {
	Branches []string
}

func NewStaticBranchAdapter(branches []string) StaticBranchAdapter {
	normalized := []string{}
	for _, branch := range shared.SplitList(branches) {
		normalized = append(normalized, shared.NormalizeName(branch))
	}
	return StaticBranchAdapter{Branches: normalized}
}

func (a StaticBranchAdapter) ActiveBranches(ctx context.Context, repository string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string{}, a.Branches...), nil
}

var _ ports.BranchSourcePort = StaticBranchAdapter{}
