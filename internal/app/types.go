package app

import "registry-pruner/internal/types"

type PruneRequest struct {
	Repositories []string
	Apply        bool
}

type PruneResult struct {
	Apply   bool
	Reports []types.RepositoryReport
}

// Totals sums planned, deleted and failed deletions over all repositories.
func (r PruneResult) Totals() (planned int, deleted int, failed int) {
	for _, report := range r.Reports {
		planned += len(report.Plan.Tags) + len(report.Plan.Digests)
		deleted += report.Deleted
		failed += report.Failed
	}
	return planned, deleted, failed
}

type BackendConfig struct {
	RegistryBackend types.RegistryBackend
	AWSRegion       string
	AWSEndpoint     string
	AWSRegistryID   string
	RegistryFile    string
	BranchBackend   types.BranchBackend
	GitHubToken     string
	GitHubOwner     string
	GitHubBaseURL   string
	GitHubRetries   int
	StaticBranches  []string
}
