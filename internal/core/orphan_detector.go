package core

import "registry-pruner/internal/types"

// FindOrphans returns the digests of images that carry no tag, in snapshot
// order. Tagged images are never orphans, whatever their tag looks like.
func FindOrphans(images []types.ImageRecord) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, image := range images {
		if image.Tagged() || image.Digest == "" {
			continue
		}
		if _, dup := seen[image.Digest]; dup {
			continue
		}
		seen[image.Digest] = struct{}{}
		out = append(out, image.Digest)
	}
	return out
}
