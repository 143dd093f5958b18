package types

// IDSet is the set of action IDs already present in the remote system.
// It is built once during reconciliation and read-only afterwards, so
// concurrent reads are safe without a lock.
type IDSet struct {
	ids map[ActionID]struct{}
}

// NewIDSet creates an IDSet from the given IDs
func NewIDSet(ids ...ActionID) *IDSet {
	s := &IDSet{ids: make(map[ActionID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether the ID is in the set
func (s *IDSet) Has(id ActionID) bool {
	_, ok := s.ids[id]
	return ok
}

// Add inserts an ID into the set
func (s *IDSet) Add(id ActionID) {
	s.ids[id] = struct{}{}
}

// Union merges all IDs from other into the set
func (s *IDSet) Union(other *IDSet) {
	for id := range other.ids {
		s.ids[id] = struct{}{}
	}
}

// Len returns the number of IDs in the set
func (s *IDSet) Len() int {
	return len(s.ids)
}
