package pta

import (
	"github.com/latticeflow/latticeflow/callgraph"
	"github.com/latticeflow/latticeflow/internal/worklist"
	"github.com/latticeflow/latticeflow/ir"
)

// Solver runs the context-insensitive pointer analysis to a fixpoint
//. Construct with New and drive with Solve; Result exposes
// the call graph and points-to query surface once Solve returns.
type Solver struct {
	hierarchy ir.ClassHierarchy
	heap      ir.HeapModel
	cg        *callgraph.Graph
	a         *arena

	wl      *worklist.Queue[int]
	pending map[int]map[*ir.Obj]struct{}

	instanceLoads  map[*ir.Var][]*ir.LoadFieldStmt
	instanceStores map[*ir.Var][]*ir.StoreFieldStmt
	arrayLoads     map[*ir.Var][]*ir.LoadArrayStmt
	arrayStores    map[*ir.Var][]*ir.StoreArrayStmt
	callsByRecv    map[*ir.Var][]*ir.CallSite
	lhsOfCall      map[*ir.CallSite]*ir.Var
}

// New constructs a solver for one whole-program analysis run.
func New(hierarchy ir.ClassHierarchy, heap ir.HeapModel) *Solver {
	return &Solver{
		hierarchy:      hierarchy,
		heap:           heap,
		cg:             callgraph.New(),
		a:              newArena(),
		wl:             worklist.New[int](),
		pending:        make(map[int]map[*ir.Obj]struct{}),
		instanceLoads:  make(map[*ir.Var][]*ir.LoadFieldStmt),
		instanceStores: make(map[*ir.Var][]*ir.StoreFieldStmt),
		arrayLoads:     make(map[*ir.Var][]*ir.LoadArrayStmt),
		arrayStores:    make(map[*ir.Var][]*ir.StoreArrayStmt),
		callsByRecv:    make(map[*ir.Var][]*ir.CallSite),
		lhsOfCall:      make(map[*ir.CallSite]*ir.Var),
	}
}

// CallGraph returns the call graph discovered on-the-fly during Solve.
func (s *Solver) CallGraph() *callgraph.Graph { return s.cg }

// Solve runs the analysis to completion starting from entry.
func (s *Solver) Solve(entry *ir.JMethod) {
	s.addReachable(entry)
	for {
		ptr, ok := s.wl.Pop()
		if !ok {
			break
		}
		delta := s.pending[ptr]
		delete(s.pending, ptr)
		s.propagate(ptr, delta)
	}
}

func (s *Solver) intern(p pointer) int { return s.a.intern(p) }

func (s *Solver) ptsOf(ptr int) map[*ir.Obj]struct{} { return s.a.pts[ptr] }

// addPoints records that objs should flow into ptr, enqueuing ptr for
// processing. The actual accumulated points-to set is only updated when
// the worklist pops ptr, so addPoints is safe to call repeatedly before
// that happens" worklist entry).
func (s *Solver) addPoints(ptr int, objs map[*ir.Obj]struct{}) {
	if len(objs) == 0 {
		return
	}
	if s.pending[ptr] == nil {
		s.pending[ptr] = make(map[*ir.Obj]struct{}, len(objs))
	}
	for o := range objs {
		s.pending[ptr][o] = struct{}{}
	}
	s.wl.Push(ptr)
}

// addPFGEdge inserts from -> to idempotently; if from already has a
// non-empty accumulated points-to set, that set is propagated to to
// immediately.
func (s *Solver) addPFGEdge(from, to int) {
	existing, added := s.a.addEdge(from, to)
	if added && len(existing) > 0 {
		s.addPoints(to, existing)
	}
}

// propagate is one worklist step: compute Δ = delta ∖ pts(ptr), extend
// pts(ptr), and if Δ is non-empty, push it to every PFG successor and run
// instance-effect expansion for every newly discovered object.
func (s *Solver) propagate(ptr int, delta map[*ir.Obj]struct{}) {
	cur := s.a.pts[ptr]
	var grown map[*ir.Obj]struct{}
	for o := range delta {
		if cur == nil || !containsObj(cur, o) {
			if grown == nil {
				grown = make(map[*ir.Obj]struct{})
			}
			grown[o] = struct{}{}
		}
	}
	if len(grown) == 0 {
		return
	}
	if cur == nil {
		cur = make(map[*ir.Obj]struct{})
	}
	for o := range grown {
		cur[o] = struct{}{}
	}
	s.a.pts[ptr] = cur

	for _, succ := range s.a.out[ptr] {
		s.addPoints(succ, grown)
	}

	p := s.a.nodes[ptr]
	if p.kind != varPointer {
		return
	}
	for o := range grown {
		s.expandInstanceEffects(p.v, o)
	}
}

func containsObj(set map[*ir.Obj]struct{}, o *ir.Obj) bool {
	_, ok := set[o]
	return ok
}

// addReachable marks m reachable (if new) and scans its body once,
// wiring the flow-insensitive New/Copy/static-field/static-and-special
// invoke edges immediately and registering instance/array/virtual-call
// sites for later instance-effect expansion.
func (s *Solver) addReachable(m *ir.JMethod) {
	if !s.cg.MarkReachable(m) {
		return
	}
	body := m.Body()
	if body == nil {
		return
	}
	for _, stmt := range body.GetStmts() {
		s.visitStmt(m, stmt)
	}
}

func (s *Solver) visitStmt(m *ir.JMethod, stmt ir.Stmt) {
	switch st := stmt.(type) {
	case *ir.NewStmt:
		obj := s.heap.GetObj(st)
		s.addPoints(s.intern(varPtr(st.LHS)), objSet(obj))

	case *ir.CopyStmt:
		s.addPFGEdge(s.intern(varPtr(st.RHS)), s.intern(varPtr(st.LHS)))

	case *ir.LoadFieldStmt:
		switch ref := st.RHS.(type) {
		case *ir.StaticFieldRef:
			s.addPFGEdge(s.intern(staticFieldPtr(ref.Field)), s.intern(varPtr(st.LHS)))
		case *ir.InstanceFieldRef:
			s.instanceLoads[ref.Base] = append(s.instanceLoads[ref.Base], st)
			for o := range s.ptsOf(s.intern(varPtr(ref.Base))) {
				s.wireInstanceLoad(st, o)
			}
		}

	case *ir.StoreFieldStmt:
		switch ref := st.LHS.(type) {
		case *ir.StaticFieldRef:
			s.addPFGEdge(s.intern(varPtr(st.RHS)), s.intern(staticFieldPtr(ref.Field)))
		case *ir.InstanceFieldRef:
			s.instanceStores[ref.Base] = append(s.instanceStores[ref.Base], st)
			for o := range s.ptsOf(s.intern(varPtr(ref.Base))) {
				s.wireInstanceStore(st, o)
			}
		}

	case *ir.LoadArrayStmt:
		s.arrayLoads[st.RHS.Base] = append(s.arrayLoads[st.RHS.Base], st)
		for o := range s.ptsOf(s.intern(varPtr(st.RHS.Base))) {
			s.wireArrayLoad(st, o)
		}

	case *ir.StoreArrayStmt:
		s.arrayStores[st.LHS.Base] = append(s.arrayStores[st.LHS.Base], st)
		for o := range s.ptsOf(s.intern(varPtr(st.LHS.Base))) {
			s.wireArrayStore(st, o)
		}

	case *ir.InvokeStmt:
		s.visitCall(m, st.Call, st.LHS)

	case *ir.AssignStmt:
		if ie, ok := st.RHS.(*ir.InvokeExpr); ok {
			s.visitCall(m, ie.Call, st.LHS)
		}
	}
}

// visitCall handles one call's static binding eagerly (STATIC and SPECIAL
// never depend on a receiver's dynamic type) and registers VIRTUAL /
// INTERFACE calls for dispatch once their receiver's points-to set is
// known.
func (s *Solver) visitCall(caller *ir.JMethod, call *ir.CallSite, lhs *ir.Var) {
	s.lhsOfCall[call] = lhs

	switch call.Kind {
	case ir.STATIC, ir.SPECIAL:
		callee := dispatch(call.Declaring, call.Sub, s.hierarchy)
		if callee == nil {
			return
		}
		s.connectCall(caller, call, callee, lhs)
	case ir.VIRTUAL, ir.INTERFACE:
		if call.Recv == nil {
			return
		}
		s.callsByRecv[call.Recv] = append(s.callsByRecv[call.Recv], call)
		for o := range s.ptsOf(s.intern(varPtr(call.Recv))) {
			s.processCall(call.Recv, o)
		}
	}
}

// connectCall adds the call-graph edge (if new) and the parameter/return
// PFG edges, then recurses into addReachable for the callee.
func (s *Solver) connectCall(caller *ir.JMethod, call *ir.CallSite, callee *ir.JMethod, lhs *ir.Var) {
	s.cg.AddEdge(call, caller, callee)

	body := callee.Body()
	if body != nil {
		if call.Recv != nil && body.GetThis() != nil {
			s.addPFGEdge(s.intern(varPtr(call.Recv)), s.intern(varPtr(body.GetThis())))
		}
		params := body.GetParams()
		for i, arg := range call.Args {
			if i >= len(params) {
				break
			}
			s.addPFGEdge(s.intern(varPtr(arg)), s.intern(varPtr(params[i])))
		}
		if lhs != nil {
			for _, rv := range body.GetReturnVars() {
				s.addPFGEdge(s.intern(varPtr(rv)), s.intern(varPtr(lhs)))
			}
		}
	}

	s.addReachable(callee)
}

// processCall resolves one virtual/interface callsite against o's
// dynamic type and wires it up).
func (s *Solver) processCall(v *ir.Var, o *ir.Obj) {
	for _, call := range s.callsByRecv[v] {
		if o.Class == nil {
			continue
		}
		callee := dispatch(o.Class, call.Sub, s.hierarchy)
		if callee == nil {
			continue
		}
		lhs := s.lhsOfCall[call]
		body := callee.Body()
		if body != nil && body.GetThis() != nil {
			s.addPoints(s.intern(varPtr(body.GetThis())), objSet(o))
		}
		var caller *ir.JMethod
		if call.Container != nil {
			caller = call.Container.Ref
		}
		s.connectCall(caller, call, callee, lhs)
	}
}

func (s *Solver) expandInstanceEffects(v *ir.Var, o *ir.Obj) {
	for _, st := range s.instanceStores[v] {
		s.wireInstanceStore(st, o)
	}
	for _, st := range s.instanceLoads[v] {
		s.wireInstanceLoad(st, o)
	}
	for _, st := range s.arrayStores[v] {
		s.wireArrayStore(st, o)
	}
	for _, st := range s.arrayLoads[v] {
		s.wireArrayLoad(st, o)
	}
	s.processCall(v, o)
}

func (s *Solver) wireInstanceLoad(st *ir.LoadFieldStmt, o *ir.Obj) {
	ref := st.RHS.(*ir.InstanceFieldRef)
	s.addPFGEdge(s.intern(instanceFieldPtr(o, ref.Field)), s.intern(varPtr(st.LHS)))
}

func (s *Solver) wireInstanceStore(st *ir.StoreFieldStmt, o *ir.Obj) {
	ref := st.LHS.(*ir.InstanceFieldRef)
	s.addPFGEdge(s.intern(varPtr(st.RHS)), s.intern(instanceFieldPtr(o, ref.Field)))
}

func (s *Solver) wireArrayLoad(st *ir.LoadArrayStmt, o *ir.Obj) {
	s.addPFGEdge(s.intern(arrayIndexPtr(o)), s.intern(varPtr(st.LHS)))
}

func (s *Solver) wireArrayStore(st *ir.StoreArrayStmt, o *ir.Obj) {
	s.addPFGEdge(s.intern(varPtr(st.RHS)), s.intern(arrayIndexPtr(o)))
}

// dispatch walks from c up through its superclasses looking for a
// concrete declaration of sub. Duplicated in miniature from
// callgraph/cha's unexported helper of the same name: both solve the
// same three-line super-chain walk, and it is not worth exporting just to
// share it.
func dispatch(c *ir.JClass, sub ir.Subsignature, h ir.ClassHierarchy) *ir.JMethod {
	for cur := c; cur != nil; cur = h.GetSuperClass(cur) {
		if m := h.GetDeclaredMethod(cur, sub); m != nil && !m.Abstract {
			return m
		}
	}
	return nil
}
