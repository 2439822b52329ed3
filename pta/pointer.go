// Package pta implements the context-insensitive whole-program pointer
// analysis: on-the-fly reachability discovery, a Pointer Flow
// Graph with idempotent edge insertion, and instance-effect expansion
// (field/array loads-stores and virtual dispatch) triggered as each
// pointer's points-to set grows. Pointers are interned into a dense arena
// of small integer indices; each index's points-to set is a map of objects.
package pta

import "github.com/latticeflow/latticeflow/ir"

// pointerKind distinguishes the four PFG node variants.
type pointerKind int

const (
	varPointer pointerKind = iota
	staticFieldPointer
	instanceFieldPointer
	arrayIndexPointer
)

// pointer is a PFG node. It is a plain comparable struct so it can be used
// directly as a map key for arena interning.
type pointer struct {
	kind  pointerKind
	v     *ir.Var
	field *ir.Field
	obj   *ir.Obj
}

func varPtr(v *ir.Var) pointer           { return pointer{kind: varPointer, v: v} }
func staticFieldPtr(f *ir.Field) pointer { return pointer{kind: staticFieldPointer, field: f} }
func instanceFieldPtr(o *ir.Obj, f *ir.Field) pointer {
	return pointer{kind: instanceFieldPointer, obj: o, field: f}
}
func arrayIndexPtr(o *ir.Obj) pointer { return pointer{kind: arrayIndexPointer, obj: o} }

// PointsToSet returns the current points-to set of v, the public query
// surface over the solver's internal pointer arena.
func (s *Solver) PointsToSet(v *ir.Var) map[*ir.Obj]struct{} {
	return s.ptsOf(s.intern(varPtr(v)))
}

// arena interns pointer values to dense integer indices.
type arena struct {
	index map[pointer]int
	nodes []pointer
	pts   []map[*ir.Obj]struct{}
	out   [][]int
	edgeSeen []map[int]struct{}
}

func newArena() *arena {
	return &arena{index: make(map[pointer]int)}
}

func (a *arena) intern(p pointer) int {
	if idx, ok := a.index[p]; ok {
		return idx
	}
	idx := len(a.nodes)
	a.index[p] = idx
	a.nodes = append(a.nodes, p)
	a.pts = append(a.pts, nil)
	a.out = append(a.out, nil)
	a.edgeSeen = append(a.edgeSeen, nil)
	return idx
}

// addEdge inserts a PFG edge from -> to, idempotently. Returns the
// from-pointer's current (already accumulated) points-to set so the
// caller can propagate it immediately to the new edge
// ("if the source pointer's points-to set is non-empty when the edge is
// added, enqueue that set for the target").
func (a *arena) addEdge(from, to int) (existing map[*ir.Obj]struct{}, added bool) {
	if a.edgeSeen[from] == nil {
		a.edgeSeen[from] = make(map[int]struct{})
	}
	if _, ok := a.edgeSeen[from][to]; ok {
		return nil, false
	}
	a.edgeSeen[from][to] = struct{}{}
	a.out[from] = append(a.out[from], to)
	return a.pts[from], true
}

func objSet(o *ir.Obj) map[*ir.Obj]struct{} { return map[*ir.Obj]struct{}{o: {}} }
