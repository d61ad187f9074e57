package core

import (
	"strconv"
	"strings"

	"registry-pruner/internal/types"
)

// ciPrefix marks tags pushed by the CI pipeline. It carries no meaning beyond
// provenance and is stripped before a tag is interpreted.
const ciPrefix = "c-"

const rcMarker = "-rc-"

// ClassifyTag maps a raw tag onto exactly one ParsedTag kind. Shapes are
// tried in the order branch build, version, release candidate; a tag
// matching none of them is unparseable.
func ClassifyTag(tag string) types.ParsedTag {
	if parsed, ok := parseBranchBuild(tag); ok {
		return parsed
	}
	if parsed, ok := parseVersion(tag); ok {
		return parsed
	}
	if parsed, ok := parseReleaseCandidate(tag); ok {
		return parsed
	}
	return types.ParsedTag{Raw: tag, Kind: types.TagKindUnparseable}
}

// ClassifyTags classifies every tagged record of a snapshot in order.
// Digest-only records are skipped.
func ClassifyTags(images []types.ImageRecord) []types.ParsedTag {
	parsed := make([]types.ParsedTag, 0, len(images))
	for _, image := range images {
		if !image.Tagged() {
			continue
		}
		parsed = append(parsed, ClassifyTag(image.Tag))
	}
	return parsed
}

// parseBranchBuild accepts <branch>-<digits> where the branch never mentions
// "rc". The last hyphen separates the build number, so "cw-822-3" is build 3
// of branch "cw-822". The CI prefix is preferred when present, falling back
// to the literal tag ("c-5" is build 5 of branch "c").
func parseBranchBuild(tag string) (types.ParsedTag, bool) {
	for _, body := range prefixCandidates(tag) {
		if strings.Contains(body, "rc") {
			continue
		}
		branch, buildNo, ok := splitBuildSuffix(body)
		if !ok || branch == "" {
			continue
		}
		return types.ParsedTag{
			Raw:     tag,
			Kind:    types.TagKindBranchBuild,
			Branch:  branch,
			BuildNo: buildNo,
		}, true
	}
	return types.ParsedTag{}, false
}

func parseVersion(tag string) (types.ParsedTag, bool) {
	for _, body := range prefixCandidates(tag) {
		major, minor, patch, ok := splitVersion(body)
		if !ok {
			continue
		}
		return types.ParsedTag{
			Raw:   tag,
			Kind:  types.TagKindVersion,
			Major: major,
			Minor: minor,
			Patch: patch,
		}, true
	}
	return types.ParsedTag{}, false
}

func parseReleaseCandidate(tag string) (types.ParsedTag, bool) {
	for _, body := range prefixCandidates(tag) {
		version, build, found := strings.Cut(body, rcMarker)
		if !found {
			continue
		}
		major, minor, patch, ok := splitVersion(version)
		if !ok {
			continue
		}
		buildNo, ok := parseDigits(build)
		if !ok {
			continue
		}
		return types.ParsedTag{
			Raw:     tag,
			Kind:    types.TagKindReleaseCandidate,
			Major:   major,
			Minor:   minor,
			Patch:   patch,
			BuildNo: buildNo,
		}, true
	}
	return types.ParsedTag{}, false
}

func prefixCandidates(tag string) []string {
	if stripped, ok := strings.CutPrefix(tag, ciPrefix); ok {
		return []string{stripped, tag}
	}
	return []string{tag}
}

// splitBuildSuffix splits "<name>-<digits>" on its last hyphen.
func splitBuildSuffix(value string) (string, int, bool) {
	idx := strings.LastIndex(value, "-")
	if idx < 0 {
		return "", 0, false
	}
	buildNo, ok := parseDigits(value[idx+1:])
	if !ok {
		return "", 0, false
	}
	return value[:idx], buildNo, true
}

func splitVersion(value string) (int, int, int, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var numbers [3]int
	for i, part := range parts {
		number, ok := parseDigits(part)
		if !ok {
			return 0, 0, 0, false
		}
		numbers[i] = number
	}
	return numbers[0], numbers[1], numbers[2], true
}

// parseDigits accepts a non-empty run of ASCII digits that fits in an int.
func parseDigits(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, false
		}
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return number, true
}
