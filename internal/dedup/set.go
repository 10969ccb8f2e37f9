// Package dedup tracks which message identities have already been surfaced.
//
// The set lives in memory only and is owned by the polling engine. After a
// process restart it starts empty, so every message still stored on the
// device is surfaced again exactly once.
package dedup

// Set is an insertion-ordered membership set with an optional capacity
// bound. When the bound is exceeded the oldest identities are evicted, so a
// very old message that is somehow still on the device may resurface; with
// the default unbounded set that never happens.
//
// Set is not safe for concurrent use. The polling engine is the only
// mutator, from a single goroutine.
type Set struct {
	seen  map[string]struct{}
	order []string
	limit int
}

// NewSet creates a set. limit <= 0 means unbounded.
func NewSet(limit int) *Set {
	return &Set{
		seen:  make(map[string]struct{}),
		limit: limit,
	}
}

// Observe reports whether id is new and marks it as seen, in one step.
// It returns true exactly once per identity (until eviction, if bounded).
func (s *Set) Observe(id string) bool {
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	if s.limit > 0 && len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	return true
}

// Len returns the number of identities currently tracked.
func (s *Set) Len() int {
	return len(s.seen)
}
