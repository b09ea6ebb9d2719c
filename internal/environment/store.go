// Package environment implements the shared knowledge store accumulated
// across a run: a mapping from an order-independent entity tag set to the
// most recent insight recorded under it, with similarity-based retrieval.
package environment

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/roundtable/internal/models"
)

// keySeparator joins canonicalized tags into a lookup key. The unit
// separator cannot appear in entity labels produced by extraction.
const keySeparator = "\x1f"

// RetrievalIndex selects the stored tag sets most related to a target
// label set. Implementations receive the full list of stored tag sets and
// must return indices valid into that list, deterministically for
// identical inputs.
type RetrievalIndex interface {
	TopIndices(stored [][]string, target []string) ([]int, error)
}

// Store is the tag-indexed environment record. Entries are added, never
// removed; inserting under an existing tag set overwrites the previous
// insight (last write wins). All methods are safe for concurrent use, so
// stage workers share a single store under single-writer discipline.
type Store struct {
	mu sync.RWMutex
	// keys holds canonical tag keys in first-insertion order, so retrieval
	// sees a stable ordering of stored tag sets.
	keys    []string
	tags    map[string][]string      // canonical key -> canonical tag set
	records map[string]models.Insight // canonical key -> latest insight
}

// NewStore creates an empty environment store.
func NewStore() *Store {
	return &Store{
		tags:    make(map[string][]string),
		records: make(map[string]models.Insight),
	}
}

// canonicalTags deduplicates and sorts entity tags so that tag sets
// compare order-independently. Returns nil for an empty result.
func canonicalTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var tags []string
	for _, tag := range raw {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Insert stores the insight under its canonicalized tag set. Insights
// without entity tags are silently dropped; an existing entry under the
// same tag set is overwritten.
func (s *Store) Insert(insight models.Insight) {
	canonical := canonicalTags(insight.EntityRecognition)
	if len(canonical) == 0 {
		return
	}
	key := strings.Join(canonical, keySeparator)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[key]; !exists {
		s.keys = append(s.keys, key)
		s.tags[key] = canonical
	}
	s.records[key] = insight
}

// InsertAll inserts a batch of insights in order.
func (s *Store) InsertAll(insights []models.Insight) {
	for _, insight := range insights {
		s.Insert(insight)
	}
}

// Len returns the number of distinct tag sets currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// TagSets returns a copy of all stored tag sets in insertion order.
func (s *Store) TagSets() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagSetsLocked()
}

// tagSetsLocked returns stored tag sets without acquiring the lock.
// Caller must hold s.mu.
func (s *Store) tagSetsLocked() [][]string {
	sets := make([][]string, 0, len(s.keys))
	for _, key := range s.keys {
		tags := s.tags[key]
		set := make([]string, len(tags))
		copy(set, tags)
		sets = append(sets, set)
	}
	return sets
}

// Retrieve returns the insights whose tag sets the index considers most
// related to the target labels. Retrieval never mutates the store.
func (s *Store) Retrieve(target []string, index RetrievalIndex) ([]models.Insight, error) {
	if index == nil {
		return nil, fmt.Errorf("retrieval index is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.keys) == 0 {
		return nil, nil
	}

	stored := s.tagSetsLocked()
	indices, err := index.TopIndices(stored, canonicalTags(target))
	if err != nil {
		return nil, fmt.Errorf("retrieval index failed: %w", err)
	}

	insights := make([]models.Insight, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(s.keys) {
			return nil, fmt.Errorf("retrieval index returned out-of-range index %d (stored sets: %d)", idx, len(s.keys))
		}
		insights = append(insights, s.records[s.keys[idx]])
	}

	return insights, nil
}
