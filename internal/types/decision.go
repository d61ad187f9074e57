package types

type TagDeletion struct {
	Tag    string
	Reason DeletionReason
}

type DigestDeletion struct {
	Digest string
	Reason DeletionReason
}

// DeletionPlan is the final action list for one repository. Tag and digest
// deletions are kept apart and no tag appears twice.
type DeletionPlan struct {
	Repository string
	Tags       []TagDeletion
	Digests    []DigestDeletion
}

func (p DeletionPlan) Empty() bool {
	return len(p.Tags) == 0 && len(p.Digests) == 0
}

// CountByReason reports how many decisions of the plan carry each reason.
func (p DeletionPlan) CountByReason() map[DeletionReason]int {
	counts := map[DeletionReason]int{}
	for _, item := range p.Tags {
		counts[item.Reason]++
	}
	for _, item := range p.Digests {
		counts[item.Reason]++
	}
	return counts
}
