package cs

import (
	"github.com/latticeflow/latticeflow/internal/worklist"
	"github.com/latticeflow/latticeflow/ir"
)

// callRecord remembers one registered virtual/interface callsite so it can
// be re-resolved every time its receiver's points-to set grows.
type callRecord struct {
	caller CSMethod
	call   *ir.CallSite
	lhs    *ir.Var
}

// Hook lets an external overlay observe the solver's fixpoint as it runs,
// without the solver depending on that overlay. The taint package is the
// only current user: it watches resolved calls to match source/transfer/
// sink rules, and watches points-to growth to know when a variable it has
// registered a transfer rule against has gained a new (possibly tainted)
// object.
type Hook interface {
	OnResolvedCall(caller CSMethod, call *ir.CallSite, callee CSMethod, lhs *ir.Var)
	OnVarGrowth(v CSVar, grown map[CSObj]struct{})
}

// Solver runs the context-sensitive pointer analysis to a fixpoint, reusing pta's delta-worklist/instance-effect-expansion design but
// threading an ir.Context through every variable and heap object per the
// supplied ir.ContextSelector policy.
type Solver struct {
	hierarchy ir.ClassHierarchy
	heap      ir.HeapModel
	sel       ir.ContextSelector
	cg        *Graph
	a         *arena

	wl      *worklist.Queue[int]
	pending map[int]map[CSObj]struct{}

	instanceLoads  map[CSVar][]*ir.LoadFieldStmt
	instanceStores map[CSVar][]*ir.StoreFieldStmt
	arrayLoads     map[CSVar][]*ir.LoadArrayStmt
	arrayStores    map[CSVar][]*ir.StoreArrayStmt
	callsByRecv    map[CSVar][]callRecord

	hooks []Hook
}

// AddHook registers an overlay to be notified of resolved calls and
// points-to growth as the fixpoint runs. Must be called before Solve.
func (s *Solver) AddHook(h Hook) { s.hooks = append(s.hooks, h) }

// HeapObj wraps a raw heap object in the context-sensitive heap object the
// selector would have produced had it been allocated under ctx — the
// injection point an overlay (taint) uses to mint its own objects directly
// into the shared arena so they ride ordinary PFG edges from then on.
func (s *Solver) HeapObj(ctx ir.Context, raw *ir.Obj) CSObj {
	return CSObj{Ctx: s.sel.SelectHeapContext(ctx, raw), Obj: raw}
}

// AddVarPoints injects obj directly into v's points-to set under ctx.
func (s *Solver) AddVarPoints(ctx ir.Context, v *ir.Var, obj CSObj) {
	s.addPoints(s.intern(varPtr(ctx, v)), objSet(obj))
}

// PointsToSetByVar is CSVar-keyed sugar over PointsToSet.
func (s *Solver) PointsToSetByVar(v CSVar) map[CSObj]struct{} { return s.PointsToSet(v.Ctx, v.V) }

// New constructs a context-sensitive solver under the given selector policy.
func New(hierarchy ir.ClassHierarchy, heap ir.HeapModel, sel ir.ContextSelector) *Solver {
	return &Solver{
		hierarchy:      hierarchy,
		heap:           heap,
		sel:            sel,
		cg:             NewGraph(),
		a:              newArena(),
		wl:             worklist.New[int](),
		pending:        make(map[int]map[CSObj]struct{}),
		instanceLoads:  make(map[CSVar][]*ir.LoadFieldStmt),
		instanceStores: make(map[CSVar][]*ir.StoreFieldStmt),
		arrayLoads:     make(map[CSVar][]*ir.LoadArrayStmt),
		arrayStores:    make(map[CSVar][]*ir.StoreArrayStmt),
		callsByRecv:    make(map[CSVar][]callRecord),
	}
}

// CallGraph returns the context-sensitive call graph discovered on the fly.
func (s *Solver) CallGraph() *Graph { return s.cg }

// Solve runs the analysis to completion starting from entry under the
// selector's empty context.
func (s *Solver) Solve(entry *ir.JMethod) {
	s.addReachable(CSMethod{Ctx: s.sel.EmptyContext(), Method: entry})
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

func (s *Solver) intern(p pointer) int             { return s.a.intern(p) }
func (s *Solver) ptsOf(ptr int) map[CSObj]struct{} { return s.a.pts[ptr] }

func (s *Solver) addPoints(ptr int, objs map[CSObj]struct{}) {
	if len(objs) == 0 {
		return
	}
	if s.pending[ptr] == nil {
		s.pending[ptr] = make(map[CSObj]struct{}, len(objs))
	}
	for o := range objs {
		s.pending[ptr][o] = struct{}{}
	}
	s.wl.Push(ptr)
}

func (s *Solver) addPFGEdge(from, to int) {
	existing, added := s.a.addEdge(from, to)
	if added && len(existing) > 0 {
		s.addPoints(to, existing)
	}
}

func (s *Solver) propagate(ptr int, delta map[CSObj]struct{}) {
	cur := s.a.pts[ptr]
	var grown map[CSObj]struct{}
	for o := range delta {
		if cur == nil || !containsObj(cur, o) {
			if grown == nil {
				grown = make(map[CSObj]struct{})
			}
			grown[o] = struct{}{}
		}
	}
	if len(grown) == 0 {
		return
	}
	if cur == nil {
		cur = make(map[CSObj]struct{})
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
	key := CSVar{Ctx: p.ctx, V: p.v}
	for _, h := range s.hooks {
		h.OnVarGrowth(key, grown)
	}
	for o := range grown {
		s.expandInstanceEffects(key, o)
	}
}

func containsObj(set map[CSObj]struct{}, o CSObj) bool {
	_, ok := set[o]
	return ok
}

func (s *Solver) addReachable(m CSMethod) {
	if !s.cg.MarkReachable(m) {
		return
	}
	body := m.Method.Body()
	if body == nil {
		return
	}
	for _, stmt := range body.GetStmts() {
		s.visitStmt(m, stmt)
	}
}

func (s *Solver) visitStmt(m CSMethod, stmt ir.Stmt) {
	ctx := m.Ctx
	switch st := stmt.(type) {
	case *ir.NewStmt:
		raw := s.heap.GetObj(st)
		cobj := CSObj{Ctx: s.sel.SelectHeapContext(ctx, raw), Obj: raw}
		s.addPoints(s.intern(varPtr(ctx, st.LHS)), objSet(cobj))

	case *ir.CopyStmt:
		s.addPFGEdge(s.intern(varPtr(ctx, st.RHS)), s.intern(varPtr(ctx, st.LHS)))

	case *ir.LoadFieldStmt:
		switch ref := st.RHS.(type) {
		case *ir.StaticFieldRef:
			s.addPFGEdge(s.intern(staticFieldPtr(ref.Field)), s.intern(varPtr(ctx, st.LHS)))
		case *ir.InstanceFieldRef:
			key := CSVar{Ctx: ctx, V: ref.Base}
			s.instanceLoads[key] = append(s.instanceLoads[key], st)
			for o := range s.ptsOf(s.intern(varPtr(ctx, ref.Base))) {
				s.wireInstanceLoad(ctx, st, o)
			}
		}

	case *ir.StoreFieldStmt:
		switch ref := st.LHS.(type) {
		case *ir.StaticFieldRef:
			s.addPFGEdge(s.intern(varPtr(ctx, st.RHS)), s.intern(staticFieldPtr(ref.Field)))
		case *ir.InstanceFieldRef:
			key := CSVar{Ctx: ctx, V: ref.Base}
			s.instanceStores[key] = append(s.instanceStores[key], st)
			for o := range s.ptsOf(s.intern(varPtr(ctx, ref.Base))) {
				s.wireInstanceStore(ctx, st, o)
			}
		}

	case *ir.LoadArrayStmt:
		key := CSVar{Ctx: ctx, V: st.RHS.Base}
		s.arrayLoads[key] = append(s.arrayLoads[key], st)
		for o := range s.ptsOf(s.intern(varPtr(ctx, st.RHS.Base))) {
			s.wireArrayLoad(ctx, st, o)
		}

	case *ir.StoreArrayStmt:
		key := CSVar{Ctx: ctx, V: st.LHS.Base}
		s.arrayStores[key] = append(s.arrayStores[key], st)
		for o := range s.ptsOf(s.intern(varPtr(ctx, st.LHS.Base))) {
			s.wireArrayStore(ctx, st, o)
		}

	case *ir.InvokeStmt:
		s.visitCall(m, st.Call, st.LHS)

	case *ir.AssignStmt:
		if ie, ok := st.RHS.(*ir.InvokeExpr); ok {
			s.visitCall(m, ie.Call, st.LHS)
		}
	}
}

func (s *Solver) visitCall(caller CSMethod, call *ir.CallSite, lhs *ir.Var) {
	switch call.Kind {
	case ir.STATIC, ir.SPECIAL:
		callee := dispatch(call.Declaring, call.Sub, s.hierarchy)
		if callee == nil {
			return
		}
		calleeCtx := s.sel.SelectContextForStatic(caller.Ctx, call, callee)
		s.connectCall(caller, call, CSMethod{Ctx: calleeCtx, Method: callee}, lhs)
	case ir.VIRTUAL, ir.INTERFACE:
		if call.Recv == nil {
			return
		}
		key := CSVar{Ctx: caller.Ctx, V: call.Recv}
		s.callsByRecv[key] = append(s.callsByRecv[key], callRecord{caller: caller, call: call, lhs: lhs})
		for o := range s.ptsOf(s.intern(varPtr(caller.Ctx, call.Recv))) {
			s.processCall(key, o)
		}
	}
}

func (s *Solver) connectCall(caller CSMethod, call *ir.CallSite, callee CSMethod, lhs *ir.Var) {
	s.cg.AddEdge(call, caller, callee)
	for _, h := range s.hooks {
		h.OnResolvedCall(caller, call, callee, lhs)
	}

	body := callee.Method.Body()
	if body != nil {
		if call.Recv != nil && body.GetThis() != nil {
			s.addPFGEdge(s.intern(varPtr(caller.Ctx, call.Recv)), s.intern(varPtr(callee.Ctx, body.GetThis())))
		}
		params := body.GetParams()
		for i, arg := range call.Args {
			if i >= len(params) {
				break
			}
			s.addPFGEdge(s.intern(varPtr(caller.Ctx, arg)), s.intern(varPtr(callee.Ctx, params[i])))
		}
		if lhs != nil {
			for _, rv := range body.GetReturnVars() {
				s.addPFGEdge(s.intern(varPtr(callee.Ctx, rv)), s.intern(varPtr(caller.Ctx, lhs)))
			}
		}
	}

	s.addReachable(callee)
}

// processCall resolves one registered virtual/interface callsite against
// o's dynamic type, selecting the callee's context via the receiver object
//.
func (s *Solver) processCall(recvKey CSVar, o CSObj) {
	for _, rec := range s.callsByRecv[recvKey] {
		if o.Obj.Class == nil {
			continue
		}
		callee := dispatch(o.Obj.Class, rec.call.Sub, s.hierarchy)
		if callee == nil {
			continue
		}
		calleeCtx := s.sel.SelectContextForVirtual(rec.caller.Ctx, rec.call, o.Obj, callee)
		csCallee := CSMethod{Ctx: calleeCtx, Method: callee}
		body := callee.Body()
		if body != nil && body.GetThis() != nil {
			s.addPoints(s.intern(varPtr(calleeCtx, body.GetThis())), objSet(o))
		}
		s.connectCall(rec.caller, rec.call, csCallee, rec.lhs)
	}
}

func (s *Solver) expandInstanceEffects(key CSVar, o CSObj) {
	for _, st := range s.instanceStores[key] {
		s.wireInstanceStore(key.Ctx, st, o)
	}
	for _, st := range s.instanceLoads[key] {
		s.wireInstanceLoad(key.Ctx, st, o)
	}
	for _, st := range s.arrayStores[key] {
		s.wireArrayStore(key.Ctx, st, o)
	}
	for _, st := range s.arrayLoads[key] {
		s.wireArrayLoad(key.Ctx, st, o)
	}
	s.processCall(key, o)
}

func (s *Solver) wireInstanceLoad(ctx ir.Context, st *ir.LoadFieldStmt, o CSObj) {
	ref := st.RHS.(*ir.InstanceFieldRef)
	s.addPFGEdge(s.intern(instanceFieldPtr(o, ref.Field)), s.intern(varPtr(ctx, st.LHS)))
}

func (s *Solver) wireInstanceStore(ctx ir.Context, st *ir.StoreFieldStmt, o CSObj) {
	ref := st.LHS.(*ir.InstanceFieldRef)
	s.addPFGEdge(s.intern(varPtr(ctx, st.RHS)), s.intern(instanceFieldPtr(o, ref.Field)))
}

func (s *Solver) wireArrayLoad(ctx ir.Context, st *ir.LoadArrayStmt, o CSObj) {
	s.addPFGEdge(s.intern(arrayIndexPtr(o)), s.intern(varPtr(ctx, st.LHS)))
}

func (s *Solver) wireArrayStore(ctx ir.Context, st *ir.StoreArrayStmt, o CSObj) {
	s.addPFGEdge(s.intern(varPtr(ctx, st.RHS)), s.intern(arrayIndexPtr(o)))
}

// dispatch mirrors pta's and callgraph/cha's same-named helper; duplicated
// rather than shared for the same reason noted there.
func dispatch(c *ir.JClass, sub ir.Subsignature, h ir.ClassHierarchy) *ir.JMethod {
	for cur := c; cur != nil; cur = h.GetSuperClass(cur) {
		if m := h.GetDeclaredMethod(cur, sub); m != nil && !m.Abstract {
			return m
		}
	}
	return nil
}
