package lattice

import "github.com/latticeflow/latticeflow/ir"

// CPFact maps variables to Values, with the invariant that a missing key
// denotes UNDEF. Construct with NewCPFact: the zero value has no backing
// map, so Update on it panics.
type CPFact struct {
	m map[*ir.Var]Value
}

// NewCPFact returns an empty fact (every variable UNDEF).
func NewCPFact() *CPFact { return &CPFact{m: make(map[*ir.Var]Value)} }

// Get returns the variable's value, UNDEF if absent.
func (f *CPFact) Get(v *ir.Var) Value {
	if f == nil {
		return Undef()
	}
	if val, ok := f.m[v]; ok {
		return val
	}
	return Undef()
}

// Update sets v's value. Setting UNDEF is equivalent to Remove, keeping the
// "missing key == UNDEF" invariant from growing the map unnecessarily.
func (f *CPFact) Update(v *ir.Var, val Value) {
	if val.IsUndef() {
		delete(f.m, v)
		return
	}
	f.m[v] = val
}

// Remove deletes v's entry, i.e. resets it to UNDEF.
func (f *CPFact) Remove(v *ir.Var) { delete(f.m, v) }

// Copy returns an independent duplicate.
func (f *CPFact) Copy() *CPFact {
	cp := NewCPFact()
	for k, v := range f.m {
		cp.m[k] = v
	}
	return cp
}

// CopyFrom bulk-overwrites this fact with src's entries, replacing whatever
// was here. Returns whether any key's resulting value differs from what it
// held before the copy (used by the solver to detect a real change rather
// than merely "a write happened").
func (f *CPFact) CopyFrom(src *CPFact) (changed bool) {
	if len(f.m) != len(src.m) {
		changed = true
	} else {
		for k, v := range src.m {
			if old, ok := f.m[k]; !ok || !old.Equal(v) {
				changed = true
				break
			}
		}
	}
	f.m = make(map[*ir.Var]Value, len(src.m))
	for k, v := range src.m {
		f.m[k] = v
	}
	return changed
}

// Equal reports whether two facts assign the same Value (including UNDEF
// by omission) to every variable mentioned in either.
func (f *CPFact) Equal(o *CPFact) bool {
	if len(f.m) != len(o.m) {
		return false
	}
	for k, v := range f.m {
		ov, ok := o.m[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ForEach iterates defined (non-UNDEF) entries. Iteration order is
// unspecified; callers needing determinism should sort by Var.Index().
func (f *CPFact) ForEach(fn func(v *ir.Var, val Value)) {
	for k, v := range f.m {
		fn(k, v)
	}
}

// Len returns the number of explicitly-tracked (non-UNDEF) variables.
func (f *CPFact) Len() int { return len(f.m) }
