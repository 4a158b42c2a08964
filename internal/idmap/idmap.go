// Package idmap assigns dense 0-based identifiers to arbitrary raw node
// IDs in first-seen order.
package idmap

// Map is a bijection from raw IDs to [0, N). It is built incrementally
// during a single pass over the edge list and is owned by one conversion
// run; it is never shared or reused.
//
// Memory is O(distinct raw IDs), independent of edge count.
type Map struct {
	ids  map[int64]int64
	next int64
}

// New returns an empty Map.
func New() *Map {
	return &Map{ids: make(map[int64]int64)}
}

// Get returns the dense ID for raw, assigning the next sequential one on
// first encounter.
func (m *Map) Get(raw int64) int64 {
	if id, ok := m.ids[raw]; ok {
		return id
	}
	id := m.next
	m.ids[raw] = id
	m.next++
	return id
}

// Lookup returns the dense ID for raw without assigning.
func (m *Map) Lookup(raw int64) (int64, bool) {
	id, ok := m.ids[raw]
	return id, ok
}

// Len returns the number of distinct raw IDs seen.
func (m *Map) Len() int64 { return m.next }
