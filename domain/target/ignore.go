package target

import (
	"sort"
	"sync"
)

// IgnoreSet holds the classes excluded from targeting. It is safe for concurrent
// use; a toggle racing a selection pass is resolved last-write-wins.
type IgnoreSet struct {
	mu  sync.RWMutex
	ids map[ClassID]struct{}
}

// NewIgnoreSet returns a set seeded with ids.
func NewIgnoreSet(ids ...ClassID) *IgnoreSet {
	s := &IgnoreSet{ids: make(map[ClassID]struct{}, len(ids))}
	for _, id := range ids {
		if id.Known() {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// NewIgnoreSetFromNames parses tokens with ParseClass. Unknown tokens are
// returned alongside the set so callers can report them.
func NewIgnoreSetFromNames(tokens []string) (*IgnoreSet, []string) {
	s := NewIgnoreSet()
	var unknown []string
	for _, t := range tokens {
		id, err := ParseClass(t)
		if err != nil {
			unknown = append(unknown, t)
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s, unknown
}

// Contains reports whether id is ignored.
func (s *IgnoreSet) Contains(id ClassID) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	_, ok := s.ids[id]
	s.mu.RUnlock()
	return ok
}

func (s *IgnoreSet) Add(id ClassID) {
	if !id.Known() {
		return
	}
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

func (s *IgnoreSet) Remove(id ClassID) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

// Toggle flips membership of id and returns true if id is now ignored.
func (s *IgnoreSet) Toggle(id ClassID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Snapshot copies the current membership for one selection pass.
func (s *IgnoreSet) Snapshot() map[ClassID]struct{} {
	out := make(map[ClassID]struct{})
	if s == nil {
		return out
	}
	s.mu.RLock()
	for id := range s.ids {
		out[id] = struct{}{}
	}
	s.mu.RUnlock()
	return out
}

// Names returns the ignored class names sorted alphabetically.
func (s *IgnoreSet) Names() []string {
	snap := s.Snapshot()
	out := make([]string, 0, len(snap))
	for id := range snap {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}

func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
