package ingest

import (
	"sort"
	"sync"
)

// sourceLocks serializes delete-then-insert per source so two overlapping
// re-ingestions of the same file cannot interleave a delete with the other
// request's upsert.
type sourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks all given sources in sorted order (avoids lock-order
// inversion between concurrent batches) and returns a release function.
// Duplicates are collapsed.
func (s *sourceLocks) acquire(sources []string) func() {
	unique := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if src != "" {
			unique[src] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(unique))
	for src := range unique {
		ordered = append(ordered, src)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, src := range ordered {
		held = append(held, s.lockFor(src))
	}
	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *sourceLocks) lockFor(source string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[source]
	if !ok {
		m = &sync.Mutex{}
		s.locks[source] = m
	}
	return m
}
