package environment

import "sort"

// DefaultMaxResults bounds how many stored tag sets the bundled index
// returns per retrieval.
const DefaultMaxResults = 3

// JaccardIndex is a deterministic RetrievalIndex based on tag overlap:
// score(stored, target) = |stored ∩ target| / |stored ∪ target|.
// Stored sets with no overlap are never returned. Ties resolve to the
// earlier stored index, so identical inputs always yield identical
// results. An exact tag-set match scores 1.0 and ranks first.
type JaccardIndex struct {
	// MaxResults caps how many indices are returned (<=0 uses
	// DefaultMaxResults).
	MaxResults int
}

// NewJaccardIndex creates a JaccardIndex with the default result cap.
func NewJaccardIndex() *JaccardIndex {
	return &JaccardIndex{MaxResults: DefaultMaxResults}
}

type scoredSet struct {
	index int
	score float64
}

// TopIndices implements RetrievalIndex.
func (j *JaccardIndex) TopIndices(stored [][]string, target []string) ([]int, error) {
	limit := j.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	targetSet := make(map[string]bool, len(target))
	for _, label := range target {
		targetSet[label] = true
	}

	var scored []scoredSet
	for i, tags := range stored {
		score := jaccard(tags, targetSet)
		if score > 0 {
			scored = append(scored, scoredSet{index: i, score: score})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		return scored[a].index < scored[b].index
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	indices := make([]int, 0, len(scored))
	for _, s := range scored {
		indices = append(indices, s.index)
	}
	return indices, nil
}

// jaccard computes |tags ∩ target| / |tags ∪ target|. Duplicate tags in
// the stored set are counted once.
func jaccard(tags []string, target map[string]bool) float64 {
	if len(tags) == 0 || len(target) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(tags))
	intersection := 0
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		if target[tag] {
			intersection++
		}
	}

	union := len(seen) + len(target) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
