package lattice

// SetFact is a set-valued fact, used by live-variable analysis (elements
// are *ir.Var) and reused anywhere a dataflow analysis needs union/meet
// semantics over a comparable element type.
type SetFact[T comparable] struct {
	m map[T]struct{}
}

// NewSetFact returns an empty set.
func NewSetFact[T comparable]() *SetFact[T] {
	return &SetFact[T]{m: make(map[T]struct{})}
}

func (s *SetFact[T]) Add(v T) { s.m[v] = struct{}{} }

func (s *SetFact[T]) Remove(v T) { delete(s.m, v) }

func (s *SetFact[T]) Contains(v T) bool {
	_, ok := s.m[v]
	return ok
}

func (s *SetFact[T]) Len() int { return len(s.m) }

// Union merges other into s in place, returning whether s grew.
func (s *SetFact[T]) Union(other *SetFact[T]) (changed bool) {
	for v := range other.m {
		if _, ok := s.m[v]; !ok {
			s.m[v] = struct{}{}
			changed = true
		}
	}
	return changed
}

// CopyFrom bulk-overwrites s with src's elements, replacing whatever was
// here. Returns whether the resulting set differs from what it held before
// (mirrors CPFact.CopyFrom's snapshot-comparison convention).
func (s *SetFact[T]) CopyFrom(src *SetFact[T]) (changed bool) {
	if len(s.m) != len(src.m) {
		changed = true
	} else {
		for v := range src.m {
			if _, ok := s.m[v]; !ok {
				changed = true
				break
			}
		}
	}
	s.m = make(map[T]struct{}, len(src.m))
	for v := range src.m {
		s.m[v] = struct{}{}
	}
	return changed
}

// Copy returns an independent duplicate.
func (s *SetFact[T]) Copy() *SetFact[T] {
	cp := NewSetFact[T]()
	for v := range s.m {
		cp.m[v] = struct{}{}
	}
	return cp
}

// Equal reports whether the two sets hold the same elements.
func (s *SetFact[T]) Equal(o *SetFact[T]) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for v := range s.m {
		if _, ok := o.m[v]; !ok {
			return false
		}
	}
	return true
}

// ForEach iterates elements in unspecified order.
func (s *SetFact[T]) ForEach(fn func(v T)) {
	for v := range s.m {
		fn(v)
	}
}

// Elements returns a snapshot slice of all elements, unspecified order.
func (s *SetFact[T]) Elements() []T {
	out := make([]T, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	return out
}
