package types

type TagKind string

const (
	TagKindBranchBuild      TagKind = "branch-build"
	TagKindVersion          TagKind = "version"
	TagKindReleaseCandidate TagKind = "release-candidate"
	TagKindUnparseable      TagKind = "unparseable"
)

// ParsedTag is the classified form of a raw image tag. Branch is set for
// branch builds; Major, Minor and Patch for versions and release candidates;
// BuildNo for branch builds and release candidates.
type ParsedTag struct {
	Raw     string
	Kind    TagKind
	Branch  string
	BuildNo int
	Major   int
	Minor   int
	Patch   int
}
