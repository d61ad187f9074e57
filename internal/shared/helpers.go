// Package shared provides common utility functions used across multiple
// packages in the registry-pruner codebase.
package shared

import "strings"

// NormalizeName lowercases and trims a branch or repository name so that
// names coming from the registry and from version control compare equal.
func NormalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeSet builds a lookup set of normalized names, dropping blanks.
func NormalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		key := NormalizeName(value)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// SplitList expands comma-separated entries and strips whitespace and
// surrounding quotes, preserving order and dropping blanks and duplicates.
func SplitList(values []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			item := TrimQuotes(part)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// TrimQuotes removes whitespace and one layer of matching single or double
// quotes, as left behind by compose files that quote repository names.
func TrimQuotes(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '\'' || first == '"') && first == last {
			trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		}
	}
	return trimmed
}
