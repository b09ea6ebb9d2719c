// Package roles holds the generated role descriptions for a run and
// selects the best assistant/user pair for each subtask from externally
// supplied compatibility scores.
package roles

// Set is an ordered collection of role descriptions. Insertion order is
// preserved because tie-breaks during matching resolve to the first role
// encountered, and that order must be reproducible.
type Set struct {
	names        []string
	descriptions map[string]string
}

// NewSet creates an empty role set.
func NewSet() *Set {
	return &Set{descriptions: make(map[string]string)}
}

// Add appends a role. Adding an existing name updates its description
// without changing its position.
func (s *Set) Add(name, description string) {
	if _, exists := s.descriptions[name]; !exists {
		s.names = append(s.names, name)
	}
	s.descriptions[name] = description
}

// Names returns the role names in insertion order.
func (s *Set) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Description returns the description for a role name.
func (s *Set) Description(name string) (string, bool) {
	desc, ok := s.descriptions[name]
	return desc, ok
}

// Len returns the number of roles in the set.
func (s *Set) Len() int {
	return len(s.names)
}
