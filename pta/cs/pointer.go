// Package cs implements the context-sensitive pointer analysis: the same
// Pointer Flow Graph and on-the-fly reachability discovery
// as package pta, but every variable node is qualified by an ir.Context and
// every heap object is qualified by the context active at its allocation
// site, per a pluggable ir.ContextSelector policy (k-CFA, object-sensitive,
// or empty — package context).
package cs

import "github.com/latticeflow/latticeflow/ir"

// CSObj is a heap object qualified by the abstract context active when it
// was allocated. Both fields are
// comparable, so CSObj is usable directly as a map key.
type CSObj struct {
	Ctx ir.Context
	Obj *ir.Obj
}

func (o CSObj) String() string { return o.Ctx.String() + ":" + o.Obj.String() }

// CSVar is a local variable qualified by the abstract context of the
// method it lives in.
type CSVar struct {
	Ctx ir.Context
	V   *ir.Var
}

type pointerKind int

const (
	varPointer pointerKind = iota
	staticFieldPointer
	instanceFieldPointer
	arrayIndexPointer
)

// pointer is one context-sensitive PFG node. Static field pointers are not
// context-qualified;
// instance-field and array-index pointers carry their context through the
// owning CSObj rather than a separate field.
type pointer struct {
	kind  pointerKind
	ctx   ir.Context // varPointer only
	v     *ir.Var    // varPointer only
	field *ir.Field  // staticFieldPointer / instanceFieldPointer
	cobj  CSObj      // instanceFieldPointer / arrayIndexPointer
}

func varPtr(ctx ir.Context, v *ir.Var) pointer {
	return pointer{kind: varPointer, ctx: ctx, v: v}
}
func staticFieldPtr(f *ir.Field) pointer { return pointer{kind: staticFieldPointer, field: f} }
func instanceFieldPtr(o CSObj, f *ir.Field) pointer {
	return pointer{kind: instanceFieldPointer, cobj: o, field: f}
}
func arrayIndexPtr(o CSObj) pointer { return pointer{kind: arrayIndexPointer, cobj: o} }

// PointsToSet returns v's points-to set under context ctx, as context-
// qualified heap objects.
func (s *Solver) PointsToSet(ctx ir.Context, v *ir.Var) map[CSObj]struct{} {
	return s.ptsOf(s.intern(varPtr(ctx, v)))
}

// arena interns pointer values to dense integer indices, identical in
// shape to package pta's arena.
type arena struct {
	index    map[pointer]int
	nodes    []pointer
	pts      []map[CSObj]struct{}
	out      [][]int
	edgeSeen []map[int]struct{}
}

func newArena() *arena { return &arena{index: make(map[pointer]int)} }

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

func (a *arena) addEdge(from, to int) (existing map[CSObj]struct{}, added bool) {
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

func objSet(o CSObj) map[CSObj]struct{} { return map[CSObj]struct{}{o: {}} }
