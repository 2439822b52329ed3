// Package icfg builds the interprocedural control-flow graph: the union of
// every reachable method's per-method CFG, glued together at call sites by
// three additional edge kinds layered over the plain intraprocedural
// NormalEdge.
package icfg

import (
	"github.com/latticeflow/latticeflow/callgraph"
	"github.com/latticeflow/latticeflow/ir"
)

// EdgeKind distinguishes the four edge kinds an interprocedural CFG carries.
type EdgeKind int

const (
	// NormalEdge is an ordinary intraprocedural CFG edge, carried over
	// unchanged from the owning method's own CFG.
	NormalEdge EdgeKind = iota
	// CallEdge goes from a callsite to the resolved callee's entry node.
	CallEdge
	// ReturnEdge goes from the resolved callee's exit node to the
	// callsite's successor within the caller.
	ReturnEdge
	// CallToReturnEdge goes from a callsite directly to its successor
	// within the caller, modelling the "skip the call" transfer that
	// carries every fact except the one the call itself defines.
	CallToReturnEdge
)

func (k EdgeKind) String() string {
	switch k {
	case NormalEdge:
		return "normal"
	case CallEdge:
		return "call"
	case ReturnEdge:
		return "return"
	case CallToReturnEdge:
		return "call_to_return"
	default:
		return "unknown"
	}
}

// Edge is one labelled ICFG edge. Call is non-nil for the three
// call-related kinds and identifies which callsite induced the edge (the
// interprocedural transfer functions need it to map parameters/arguments
// and to know which variable a CallToReturnEdge must kill). LHS carries
// the callsite's result variable (nil if the call's result is discarded),
// so CallToReturnEdge/ReturnEdge transfers don't need to re-derive it.
type Edge struct {
	Kind     EdgeKind
	From, To ir.Stmt
	Call     *ir.CallSite
	LHS      *ir.Var
}

// Graph is the built ICFG: every reachable method's nodes, unioned, with
// call/return/call-to-return edges layered over each callsite.
type Graph struct {
	nodes    []ir.Stmt
	out      map[ir.Stmt][]Edge
	in       map[ir.Stmt][]Edge
	methodOf map[ir.Stmt]*ir.JMethod
}

// Nodes returns every ICFG node across every reachable method, in the
// order methods were visited (callgraph.Graph's arena order) and program
// order within each method.
func (g *Graph) Nodes() []ir.Stmt { return g.nodes }

// OutEdges returns n's out-edges of every kind.
func (g *Graph) OutEdges(n ir.Stmt) []Edge { return g.out[n] }

// InEdges returns n's in-edges of every kind.
func (g *Graph) InEdges(n ir.Stmt) []Edge { return g.in[n] }

// SuccsOf flattens OutEdges to plain targets.
func (g *Graph) SuccsOf(n ir.Stmt) []ir.Stmt {
	edges := g.out[n]
	out := make([]ir.Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

// PredsOf flattens InEdges to plain sources.
func (g *Graph) PredsOf(n ir.Stmt) []ir.Stmt {
	edges := g.in[n]
	out := make([]ir.Stmt, len(edges))
	for i, e := range edges {
		out[i] = e.From
	}
	return out
}

// MethodOf returns the method n belongs to.
func (g *Graph) MethodOf(n ir.Stmt) *ir.JMethod { return g.methodOf[n] }

// EntryOf and ExitOf return m's per-method CFG boundary nodes, the ones
// an interprocedural solver seeds boundary facts onto for entry methods
// and reads return-variable facts off of for ReturnEdge transfers.
func (g *Graph) EntryOf(m *ir.JMethod) ir.Stmt { return m.Body().CFG().Entry() }
func (g *Graph) ExitOf(m *ir.JMethod) ir.Stmt  { return m.Body().CFG().Exit() }

func (g *Graph) addEdge(kind EdgeKind, from, to ir.Stmt, call *ir.CallSite, lhs *ir.Var) {
	e := Edge{Kind: kind, From: from, To: to, Call: call, LHS: lhs}
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
}

// callOf reports the callsite and result variable of an invocation
// statement, the two statement shapes visitCall-style passes switch on
// throughout this module (pta, pta/cs): a discarded-result InvokeStmt or
// an Assign whose RHS is an InvokeExpr.
func callOf(n ir.Stmt) (*ir.CallSite, *ir.Var, bool) {
	switch s := n.(type) {
	case *ir.InvokeStmt:
		return s.Call, s.LHS, true
	case *ir.AssignStmt:
		if ie, ok := s.RHS.(*ir.InvokeExpr); ok {
			return ie.Call, s.LHS, true
		}
	}
	return nil, nil, false
}

// Build glues every method cg has marked reachable into one ICFG. Methods
// with no body (unresolved/abstract) are skipped: their CFG is absent by
// construction, so no node exists to fold them into; calls that target
// them simply get a CallToReturnEdge and no Call/ReturnEdge, the same
// degraded-but-sound behavior an unresolved virtual callsite gets.
func Build(cg *callgraph.Graph) *Graph {
	g := &Graph{
		out:      make(map[ir.Stmt][]Edge),
		in:       make(map[ir.Stmt][]Edge),
		methodOf: make(map[ir.Stmt]*ir.JMethod),
	}

	for _, m := range cg.ReachableMethods() {
		body := m.Body()
		if body == nil {
			continue
		}
		cfg := body.CFG()
		if cfg == nil {
			continue
		}
		for _, n := range cfg.Nodes() {
			g.nodes = append(g.nodes, n)
			g.methodOf[n] = m
		}
	}

	for _, m := range cg.ReachableMethods() {
		body := m.Body()
		if body == nil {
			continue
		}
		cfg := body.CFG()
		if cfg == nil {
			continue
		}
		for _, n := range cfg.Nodes() {
			call, lhs, isCall := callOf(n)
			if !isCall {
				for _, succ := range cfg.SuccsOf(n) {
					g.addEdge(NormalEdge, n, succ, nil, nil)
				}
				continue
			}
			for _, succ := range cfg.SuccsOf(n) {
				g.addEdge(CallToReturnEdge, n, succ, call, lhs)
				for _, e := range cg.OutEdges(m) {
					if e.Site != call {
						continue
					}
					calleeBody := e.Callee.Body()
					if calleeBody == nil || calleeBody.CFG() == nil {
						continue
					}
					calleeCFG := calleeBody.CFG()
					g.addEdge(CallEdge, n, calleeCFG.Entry(), call, lhs)
					g.addEdge(ReturnEdge, calleeCFG.Exit(), succ, call, lhs)
				}
			}
		}
	}

	return g
}
