package ports

import "context"

// BranchSourcePort returns the lower-cased names of the branches currently
// open in version control for a repository.
type BranchSourcePort interface {
	ActiveBranches(ctx context.Context, repository string) ([]string, error)
}
