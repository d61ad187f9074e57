package core

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"registry-pruner/internal/shared"
	"registry-pruner/internal/types"
)

const (
	developBranch = "develop"
	masterBranch  = "master"
)

// RetentionEngine selects old builds for deletion, bucket by bucket.
type RetentionEngine struct {
	policy types.RetentionPolicy
	clock  func() time.Time
	logger zerolog.Logger
}

func NewRetentionEngine(policy types.RetentionPolicy, clock func() time.Time, logger zerolog.Logger) RetentionEngine {
	return RetentionEngine{
		policy: normalizeRetentionPolicy(policy),
		clock:  clock,
		logger: logger,
	}
}

// buckets holds classified tags grouped by lineage. Feature branches keep
// first-seen order so output is deterministic.
type buckets struct {
	develop      []types.ParsedTag
	master       []types.ParsedTag
	featureOrder []string
	features     map[string][]types.ParsedTag
	versions     []types.ParsedTag
	candidates   []types.ParsedTag
	unparseable  int
}

// Evaluate returns the tags to delete as old builds, ordered by first
// appearance in classified.
func (e RetentionEngine) Evaluate(classified []types.ParsedTag) []string {
	b := bucketize(classified)
	selected := map[string]struct{}{}

	for _, tag := range keepNewest(b.develop, e.policy.KeepDevelop) {
		selected[tag] = struct{}{}
	}
	for _, tag := range keepNewest(b.master, e.policy.KeepMaster) {
		selected[tag] = struct{}{}
	}
	for _, branch := range b.featureOrder {
		for _, tag := range keepNewest(b.features[branch], e.policy.KeepFeature) {
			selected[tag] = struct{}{}
		}
	}
	for _, tag := range e.expiredReleases(b.versions, b.candidates) {
		selected[tag] = struct{}{}
	}

	e.logger.Debug().
		Int("develop", len(b.develop)).
		Int("master", len(b.master)).
		Int("feature_branches", len(b.featureOrder)).
		Int("versions", len(b.versions)).
		Int("release_candidates", len(b.candidates)).
		Int("unparseable", b.unparseable).
		Int("selected", len(selected)).
		Msg("retention buckets evaluated")

	var out []string
	for _, parsed := range classified {
		if _, ok := selected[parsed.Raw]; !ok {
			continue
		}
		out = append(out, parsed.Raw)
		delete(selected, parsed.Raw)
	}
	return out
}

func bucketize(classified []types.ParsedTag) buckets {
	b := buckets{features: map[string][]types.ParsedTag{}}
	for _, parsed := range classified {
		switch parsed.Kind {
		case types.TagKindBranchBuild:
			branch := shared.NormalizeName(parsed.Branch)
			switch branch {
			case developBranch:
				b.develop = append(b.develop, parsed)
			case masterBranch:
				b.master = append(b.master, parsed)
			default:
				if _, ok := b.features[branch]; !ok {
					b.featureOrder = append(b.featureOrder, branch)
				}
				b.features[branch] = append(b.features[branch], parsed)
			}
		case types.TagKindVersion:
			b.versions = append(b.versions, parsed)
		case types.TagKindReleaseCandidate:
			b.candidates = append(b.candidates, parsed)
		default:
			b.unparseable++
		}
	}
	return b
}

// keepNewest keeps the keep highest build numbers and returns the rest.
// Equal build numbers keep their input order.
func keepNewest(builds []types.ParsedTag, keep int) []string {
	if len(builds) <= keep {
		return nil
	}
	sorted := append([]types.ParsedTag(nil), builds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BuildNo > sorted[j].BuildNo
	})
	out := make([]string, 0, len(sorted)-keep)
	for _, parsed := range sorted[keep:] {
		out = append(out, parsed.Raw)
	}
	return out
}

// expiredReleases applies the calendar window to versions and release
// candidates, read as YY.MM.<build>. It only runs when both buckets hold
// more than one tag.
func (e RetentionEngine) expiredReleases(versions []types.ParsedTag, candidates []types.ParsedTag) []string {
	if len(versions) <= 1 || len(candidates) <= 1 {
		return nil
	}
	now := timeNow(e.clock)
	year := now.Year() % 100
	month := int(now.Month())

	var out []string
	for _, group := range [][]types.ParsedTag{versions, candidates} {
		for _, parsed := range group {
			if releaseExpired(parsed, year, month) {
				out = append(out, parsed.Raw)
			}
		}
	}
	return out
}

// releaseExpired keeps the current and two previous months. January and
// February test a conjunction where later months test a disjunction; the
// rule is kept exactly as deployed.
func releaseExpired(parsed types.ParsedTag, year int, month int) bool {
	switch {
	case month >= 3:
		return parsed.Major < year || parsed.Minor < month-2
	case month == 2:
		return parsed.Major < year && parsed.Minor < 12
	default:
		return parsed.Major < year && parsed.Minor < 11
	}
}

func normalizeRetentionPolicy(policy types.RetentionPolicy) types.RetentionPolicy {
	normalized := policy
	if normalized.KeepDevelop <= 0 {
		normalized.KeepDevelop = types.DefaultKeepDevelop
	}
	if normalized.KeepMaster <= 0 {
		normalized.KeepMaster = types.DefaultKeepMaster
	}
	if normalized.KeepFeature <= 0 {
		normalized.KeepFeature = types.DefaultKeepFeature
	}
	return normalized
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
