package cs

import "github.com/latticeflow/latticeflow/ir"

// CSMethod is a method analyzed under one abstract calling context — the
// context-sensitive call graph's node type, since the same ir.JMethod may
// be reachable (and separately summarized) under several contexts.
type CSMethod struct {
	Ctx    ir.Context
	Method *ir.JMethod
}

func (m CSMethod) String() string { return m.Ctx.String() + ":" + m.Method.String() }

// CSEdge is one context-sensitive call-graph edge.
type CSEdge struct {
	Caller CSMethod
	Callee CSMethod
	Site   *ir.CallSite
}

type edgeKey struct {
	caller, callee CSMethod
	site           *ir.CallSite
}

// Graph is the context-sensitive analogue of callgraph.Graph, keyed on
// CSMethod rather than bare *ir.JMethod.
type Graph struct {
	reachable map[CSMethod]struct{}
	out       map[CSMethod][]CSEdge
	in        map[CSMethod][]CSEdge
	edgeSeen  map[edgeKey]struct{}
}

// NewGraph returns an empty context-sensitive call graph.
func NewGraph() *Graph {
	return &Graph{
		reachable: make(map[CSMethod]struct{}),
		out:       make(map[CSMethod][]CSEdge),
		in:        make(map[CSMethod][]CSEdge),
		edgeSeen:  make(map[edgeKey]struct{}),
	}
}

// MarkReachable marks m reachable, returning whether it was newly added.
func (g *Graph) MarkReachable(m CSMethod) bool {
	if _, ok := g.reachable[m]; ok {
		return false
	}
	g.reachable[m] = struct{}{}
	return true
}

func (g *Graph) IsReachable(m CSMethod) bool {
	_, ok := g.reachable[m]
	return ok
}

// ReachableMethods returns every CSMethod marked reachable so far.
func (g *Graph) ReachableMethods() []CSMethod {
	ms := make([]CSMethod, 0, len(g.reachable))
	for m := range g.reachable {
		ms = append(ms, m)
	}
	return ms
}

// AddEdge inserts a call edge idempotently, returning whether it was new.
func (g *Graph) AddEdge(site *ir.CallSite, caller, callee CSMethod) bool {
	k := edgeKey{caller, callee, site}
	if _, ok := g.edgeSeen[k]; ok {
		return false
	}
	g.edgeSeen[k] = struct{}{}
	e := CSEdge{Caller: caller, Callee: callee, Site: site}
	g.out[caller] = append(g.out[caller], e)
	g.in[callee] = append(g.in[callee], e)
	return true
}

func (g *Graph) OutEdges(m CSMethod) []CSEdge { return g.out[m] }
func (g *Graph) InEdges(m CSMethod) []CSEdge  { return g.in[m] }
