package types

type DeletionReason string

const (
	DeletionReasonClosedBranch DeletionReason = "closed-branch"
	DeletionReasonOldBuild     DeletionReason = "old-build"
	DeletionReasonOrphan       DeletionReason = "orphan"
)

type RegistryBackend string

const (
	RegistryBackendECR  RegistryBackend = "ecr"
	RegistryBackendFile RegistryBackend = "file"
)

type BranchBackend string

const (
	BranchBackendGitHub BranchBackend = "github"
	BranchBackendStatic BranchBackend = "static"
)
