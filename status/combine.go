package status

import "github.com/arloliu/go-beamline/internal/util"

// Combine returns the AND-composite of a and b.
//
// The composite resolves successful only when every underlying atomic
// operation succeeds, and resolves failed as soon as any of them fails.
// Combining composites flattens their leaves, so chained combines report
// progress over the full set of atomic operations.
func Combine(a *Status, b *Status) *Status {
	c := &Status{done: make(chan struct{})}
	c.leaves = append(c.leaves, leavesOf(a)...)
	c.leaves = append(c.leaves, leavesOf(b)...)
	c.total = len(c.leaves)

	for _, leaf := range c.leaves {
		leaf := leaf
		leaf.onFinished(func() { c.leafDone(leaf) })
	}

	return c
}

// CombineAll folds Combine over statuses. It requires at least one status.
func CombineAll(first *Status, rest ...*Status) *Status {
	combined := first
	for _, s := range rest {
		combined = Combine(combined, s)
	}
	return combined
}

func leavesOf(s *Status) []*Status {
	if len(s.leaves) > 0 {
		return s.leaves
	}
	return []*Status{s}
}

// leafDone records the resolution of one underlying atomic operation.
func (s *Status) leafDone(leaf *Status) {
	if err := leaf.Err(); err != nil {
		s.Resolve(err)
		return
	}

	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.resolved++
	if s.resolved == s.total {
		s.mu.Unlock()
		s.Resolve(nil)
		return
	}
	p := s.progressLocked()
	watchers := util.CloneSlice(s.watchers, 0)
	s.mu.Unlock()

	for _, w := range watchers {
		w(p)
	}
}
