package interconst

import (
	"github.com/latticeflow/latticeflow/constprop"
	"github.com/latticeflow/latticeflow/icfg"
	"github.com/latticeflow/latticeflow/internal/worklist"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"
)

// Result holds the fixpoint IN/OUT fact for every ICFG node, mirroring
// dataflow.Result's query surface one level up.
type Result struct {
	in  map[ir.Stmt]*lattice.CPFact
	out map[ir.Stmt]*lattice.CPFact
}

func (r *Result) GetInFact(n ir.Stmt) *lattice.CPFact  { return r.in[n] }
func (r *Result) GetOutFact(n ir.Stmt) *lattice.CPFact { return r.out[n] }

type solver struct {
	g  *icfg.Graph
	am *AliasMap
	in map[ir.Stmt]*lattice.CPFact
	// out is keyed the same way; kept separate so a node's IN can be
	// recomputed from predecessors' OUT without clobbering OUT mid-pass.
	out     map[ir.Stmt]*lattice.CPFact
	wl      *worklist.Queue[ir.Stmt]
	entries map[ir.Stmt]struct{}
}

// Solve runs the interprocedural worklist over g, using am (built once and
// frozen before this call) for alias-aware static/instance/array load
// transfers. entryMethods are the
// program's designated entry points: their ICFG entry nodes seed the
// boundary fact and never have their OUT recomputed; every other node,
// including ordinary callees' entry nodes, is an interior node whose IN/OUT
// the fixpoint computes normally.
func Solve(g *icfg.Graph, am *AliasMap, entryMethods []*ir.JMethod) *Result {
	s := &solver{
		g:       g,
		am:      am,
		in:      make(map[ir.Stmt]*lattice.CPFact),
		out:     make(map[ir.Stmt]*lattice.CPFact),
		wl:      worklist.New[ir.Stmt](),
		entries: make(map[ir.Stmt]struct{}),
	}

	for _, n := range g.Nodes() {
		s.in[n] = lattice.NewCPFact()
		s.out[n] = lattice.NewCPFact()
	}
	for _, m := range entryMethods {
		entry := g.EntryOf(m)
		s.entries[entry] = struct{}{}
		s.out[entry] = boundaryFact(m)
	}
	for _, n := range g.Nodes() {
		if _, ok := s.entries[n]; !ok {
			s.wl.Push(n)
		}
	}

	for {
		n, ok := s.wl.Pop()
		if !ok {
			break
		}

		merged := lattice.NewCPFact()
		for _, e := range g.InEdges(n) {
			meetFactInto(s.transferEdge(e), merged)
		}
		s.in[n] = merged

		if !s.transferNode(n, merged, s.out[n]) {
			continue
		}

		for _, succ := range g.SuccsOf(n) {
			if _, isEntry := s.entries[succ]; isEntry {
				continue
			}
			s.wl.Push(succ)
		}
		s.reenqueueDependents(n)
	}

	return &Result{in: s.in, out: s.out}
}

// boundaryFact marks every int-holding parameter of an entry method NAC,
// identical to the intraprocedural boundary, since an entry
// method's parameters carry no caller-known value.
func boundaryFact(m *ir.JMethod) *lattice.CPFact {
	f := lattice.NewCPFact()
	if m.Body() == nil {
		return f
	}
	for _, p := range m.Body().GetParams() {
		if p.Type().IsIntHolding() {
			f.Update(p, lattice.NAC())
		}
	}
	return f
}

func meetFactInto(src, dst *lattice.CPFact) {
	src.ForEach(func(v *ir.Var, val lattice.Value) {
		dst.Update(v, lattice.Meet(dst.Get(v), val))
	})
}

// transferEdge implements the four edge transfers of the ICFG: normal,
// call-to-return, call and return.
func (s *solver) transferEdge(e icfg.Edge) *lattice.CPFact {
	srcOut := s.out[e.From]
	switch e.Kind {
	case icfg.NormalEdge:
		return srcOut

	case icfg.CallToReturnEdge:
		next := srcOut.Copy()
		if e.LHS != nil {
			next.Update(e.LHS, lattice.Undef())
		}
		return next

	case icfg.CallEdge:
		fact := lattice.NewCPFact()
		callee := s.g.MethodOf(e.To)
		if callee == nil || callee.Body() == nil {
			return fact
		}
		params := callee.Body().GetParams()
		for i, p := range params {
			if i >= len(e.Call.Args) {
				break
			}
			if p.Type().IsIntHolding() {
				fact.Update(p, srcOut.Get(e.Call.Args[i]))
			}
		}
		return fact

	case icfg.ReturnEdge:
		fact := lattice.NewCPFact()
		if e.LHS == nil || !e.LHS.Type().IsIntHolding() {
			return fact
		}
		callee := s.g.MethodOf(e.From)
		if callee == nil || callee.Body() == nil {
			return fact
		}
		val := lattice.Undef()
		for _, rv := range callee.Body().GetReturnVars() {
			val = lattice.Meet(val, srcOut.Get(rv))
		}
		fact.Update(e.LHS, val)
		return fact

	default:
		return lattice.NewCPFact()
	}
}

// transferNode runs the per-statement transfer. AssignStmt/CopyStmt/NewStmt
// delegate to the same logic as intraprocedural constant propagation; LoadFieldStmt/LoadArrayStmt are alias-aware;
// StoreFieldStmt/StoreArrayStmt/InvokeStmt define no local variable here
// (their effect arrives via CallToReturnEdge/ReturnEdge or is picked up by
// a later load through the alias map), so they fall through to identity.
func (s *solver) transferNode(n ir.Stmt, in, out *lattice.CPFact) bool {
	next := in.Copy()

	switch st := n.(type) {
	case *ir.AssignStmt:
		if _, isCall := st.RHS.(*ir.InvokeExpr); !isCall && st.LHS.Type().IsIntHolding() {
			next.Update(st.LHS, constprop.Eval(in, st.RHS))
		}
	case *ir.CopyStmt:
		if st.LHS.Type().IsIntHolding() {
			next.Update(st.LHS, in.Get(st.RHS))
		}
	case *ir.NewStmt:
		if st.LHS.Type().IsIntHolding() {
			next.Update(st.LHS, lattice.NAC())
		}
	case *ir.LoadFieldStmt:
		if st.LHS.Type().IsIntHolding() {
			next.Update(st.LHS, s.evalLoadField(st))
		}
	case *ir.LoadArrayStmt:
		if st.LHS.Type().IsIntHolding() {
			next.Update(st.LHS, s.evalLoadArray(in, st))
		}
	}

	return out.CopyFrom(next)
}

func (s *solver) evalLoadField(st *ir.LoadFieldStmt) lattice.Value {
	val := lattice.Undef()
	switch ref := st.RHS.(type) {
	case *ir.StaticFieldRef:
		for _, store := range s.am.StaticStores(ref.Field) {
			val = lattice.Meet(val, s.out[store].Get(store.RHS))
		}
	case *ir.InstanceFieldRef:
		for _, store := range s.am.InstanceStoresThrough(ref.Base, ref.Field) {
			val = lattice.Meet(val, s.out[store].Get(store.RHS))
		}
	}
	return val
}

func (s *solver) evalLoadArray(in *lattice.CPFact, st *ir.LoadArrayStmt) lattice.Value {
	idxVal := in.Get(st.RHS.Index)
	val := lattice.Undef()
	for _, store := range s.am.ArrayStoresThrough(st.RHS.Base) {
		storeIn := s.in[store]
		if !indexMatch(idxVal, storeIn.Get(store.LHS.Index)) {
			continue
		}
		val = lattice.Meet(val, s.out[store].Get(store.RHS))
	}
	return val
}

// indexMatch is true iff both are constants and equal, or either is NAC. An
// UNDEF index matches nothing unless the other side is NAC.
func indexMatch(a, b lattice.Value) bool {
	if a.IsNAC() || b.IsNAC() {
		return true
	}
	return a.IsConst() && b.IsConst() && a.ConstValue() == b.ConstValue()
}

// reenqueueDependents pushes every load that reads through a changed
// store's field/base back onto the worklist: loads and stores connected
// only through the alias map have no direct ICFG edge between them, so
// without this push a load scanned before its aliased store changed would
// never be revisited.
func (s *solver) reenqueueDependents(n ir.Stmt) {
	switch st := n.(type) {
	case *ir.StoreFieldStmt:
		switch ref := st.LHS.(type) {
		case *ir.StaticFieldRef:
			for _, ld := range s.am.StaticLoads(ref.Field) {
				s.wl.Push(ld)
			}
		case *ir.InstanceFieldRef:
			for _, ld := range s.am.InstanceLoadsDependentOn(ref.Base, ref.Field) {
				s.wl.Push(ld)
			}
		}
	case *ir.StoreArrayStmt:
		for _, ld := range s.am.ArrayLoadsDependentOn(st.LHS.Base) {
			s.wl.Push(ld)
		}
	}
}
