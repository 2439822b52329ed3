// Package latticeflow is the root orchestrator: it wires class-hierarchy
// analysis, pointer analysis (context-insensitive or -sensitive, per
// AnalysisOptions.Context), the interprocedural constant-propagation
// layer, and the taint overlay into one whole-program run. A single
// constructor takes the configuration and a *log.Logger, a mutating
// Analyze step runs the pipeline, and a separate Report() reads back
// whatever that step produced.
package latticeflow

import (
	gocontext "context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/latticeflow/latticeflow/callgraph"
	"github.com/latticeflow/latticeflow/callgraph/cha"
	"github.com/latticeflow/latticeflow/config"
	"github.com/latticeflow/latticeflow/constprop"
	lfcontext "github.com/latticeflow/latticeflow/context"
	"github.com/latticeflow/latticeflow/dataflow"
	"github.com/latticeflow/latticeflow/icfg"
	"github.com/latticeflow/latticeflow/interconst"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"
	"github.com/latticeflow/latticeflow/liveness"
	"github.com/latticeflow/latticeflow/pta"
	"github.com/latticeflow/latticeflow/pta/cs"
	"github.com/latticeflow/latticeflow/taint"
)

// Sentinel errors returned by Analyze/Report, checkable with errors.Is.
var (
	// ErrNoEntryPoints is returned when none of AnalysisOptions.EntryPoints
	// resolved to a declared method — a structural fault, since a
	// whole-program run with nothing to start from cannot produce a
	// meaningful result (unlike a single unresolved entry point, which is
	// logged and skipped).
	ErrNoEntryPoints = errors.New("latticeflow: no entry point resolved")
	// ErrNotAnalyzed is returned by Report when called before Analyze.
	ErrNotAnalyzed = errors.New("latticeflow: Report called before Analyze")
)

// MethodReport is the intraprocedural result (C3/C4) for one reachable
// method: the statements DetectDeadCode proved dead.
type MethodReport struct {
	Method   *ir.JMethod
	DeadCode []ir.Stmt
}

// Report is everything one Analyze run produced.
type Report struct {
	ReachableMethods int
	CallGraphEdges   int
	PerMethod        []MethodReport
	InterConst       *interconst.Result
	TaintFlows       []taint.TaintFlow
}

// Program runs the whole-program pipeline once per Analyze call. hierarchy
// and heap are the external collaborators; classes lets
// EntryPoints/taint-config rule files name classes by string instead of by
// pointer.
type Program struct {
	hierarchy ir.ClassHierarchy
	heap      ir.HeapModel
	classes   map[string]*ir.JClass
	opts      *config.AnalysisOptions
	logger    *log.Logger

	mu       sync.Mutex
	analyzed bool
	report   *Report
}

// NewProgram constructs an unrun orchestrator. classes maps a declared
// class's name to its handle, the bridge EntryPoints and TaintConfigPath
// both need between plain-text names and *ir.JClass pointer identity.
func NewProgram(hierarchy ir.ClassHierarchy, heap ir.HeapModel, classes map[string]*ir.JClass, opts *config.AnalysisOptions, logger *log.Logger) *Program {
	if logger == nil {
		logger = log.Default()
	}
	return &Program{hierarchy: hierarchy, heap: heap, classes: classes, opts: opts, logger: logger}
}

// ClassResolver adapts Program's class table to config.ClassResolver's
// shape, so a taint-config rule file can be loaded against whichever
// classes this run's IR actually declared.
func (p *Program) ClassResolver() config.ClassResolver {
	return func(name string) (*ir.JClass, bool) {
		c, ok := p.classes[name]
		return c, ok
	}
}

// Analyze runs CHA, then the configured pointer analysis, then the
// alias-map freeze, ICFG construction, interprocedural constant
// propagation, and (if configured) the taint overlay — mirroring the
// CheckAnalyzersWithSSA: a mutating step whose output Report
// reads back separately. Per-method intraprocedural constant propagation,
// liveness, and dead-code detection run concurrently across reachable
// methods via errgroup, since each method's intraprocedural facts are
// independent of every other method's.
func (p *Program) Analyze(ctx gocontext.Context) error {
	entries, err := p.resolveEntryPoints()
	if err != nil {
		return err
	}

	cg, interAliasPTS, taintFlows, err := p.buildCallGraphAndAliasSource(entries)
	if err != nil {
		return err
	}

	icfgGraph := icfg.Build(cg)
	aliasMap := interconst.Build(icfgGraph.Nodes(), interAliasPTS)
	interResult := interconst.Solve(icfgGraph, aliasMap, entries)

	perMethod, err := p.runIntraproceduralPasses(ctx, cg)
	if err != nil {
		return err
	}

	edgeCount := 0
	for _, m := range cg.ReachableMethods() {
		edgeCount += len(cg.OutEdges(m))
	}

	report := &Report{
		ReachableMethods: len(cg.ReachableMethods()),
		CallGraphEdges:   edgeCount,
		PerMethod:        perMethod,
		InterConst:       interResult,
		TaintFlows:       taintFlows,
	}

	p.mu.Lock()
	p.report = report
	p.analyzed = true
	p.mu.Unlock()
	return nil
}

// Report returns the result of the most recent Analyze call.
func (p *Program) Report() (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.analyzed {
		return nil, ErrNotAnalyzed
	}
	return p.report, nil
}

// resolveEntryPoints turns AnalysisOptions.EntryPoints ("ClassName.sub()"
// strings) into declared methods. An entry that fails to resolve is a
// configuration mismatch: logged and skipped, not fatal —
// only ending up with zero resolved entries is.
func (p *Program) resolveEntryPoints() ([]*ir.JMethod, error) {
	var out []*ir.JMethod
	for _, raw := range p.opts.EntryPoints {
		className, sub, ok := strings.Cut(raw, ".")
		if !ok {
			p.logger.Printf("latticeflow: malformed entry point %q, skipping", raw)
			continue
		}
		class, ok := p.classes[className]
		if !ok {
			p.logger.Printf("latticeflow: entry point %q names an unknown class, skipping", raw)
			continue
		}
		m := p.hierarchy.GetDeclaredMethod(class, ir.Subsignature(sub))
		if m == nil || m.Body() == nil {
			p.logger.Printf("latticeflow: entry point %q does not resolve to a concrete method, skipping", raw)
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, ErrNoEntryPoints
	}
	return out, nil
}

// buildCallGraphAndAliasSource runs CHA from every entry point (the merged
// CHA graph is not used by any later step), then the pointer analysis the
// configured context sensitivity names, and returns a
// flattened callgraph.Graph (the ICFG's input shape regardless of pointer
// analysis mode), an interconst.PointsToProvider for the alias freeze, and
// any taint flows the context-sensitive overlay found (nil under
// insensitive analysis, since the overlay only ever rides pta/cs's PFG).
func (p *Program) buildCallGraphAndAliasSource(entries []*ir.JMethod) (*callgraph.Graph, interconst.PointsToProvider, []taint.TaintFlow, error) {
	chaGraph := callgraph.New()
	for _, e := range entries {
		mergeCallGraph(chaGraph, cha.Build(e, p.hierarchy))
	}

	if p.opts.Context == config.Insensitive || p.opts.Context == "" {
		solver := pta.New(p.hierarchy, p.heap)
		for _, e := range entries {
			solver.Solve(e)
		}
		return solver.CallGraph(), solver, nil, nil
	}

	selector, err := p.contextSelector()
	if err != nil {
		return nil, nil, nil, err
	}
	solver := cs.New(p.hierarchy, p.heap, selector)

	var overlay *taint.Overlay
	if p.opts.TaintConfigPath != "" {
		taintCfg, err := config.LoadTaintConfig(p.opts.TaintConfigPath, p.ClassResolver())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("latticeflow: load taint config: %w", err)
		}
		overlay = taint.New(solver, taintCfg)
		solver.AddHook(overlay)
	}

	for _, e := range entries {
		solver.Solve(e)
	}

	flattened := collapseCSGraph(solver.CallGraph())
	adapter := newCSPointsToAdapter(solver)

	var flows []taint.TaintFlow
	if overlay != nil {
		flows = overlay.Flows()
	}
	return flattened, adapter, flows, nil
}

func (p *Program) contextSelector() (ir.ContextSelector, error) {
	switch p.opts.Context {
	case config.KCFA:
		return lfcontext.KCFA{K: p.opts.KCFALimit}, nil
	case config.ObjectSensitive:
		return lfcontext.ObjectSensitive{K: p.opts.ObjectSensitivityDepth}, nil
	case config.Insensitive, "":
		return lfcontext.Empty{}, nil
	default:
		return nil, fmt.Errorf("latticeflow: unknown context sensitivity %q", p.opts.Context)
	}
}

// runIntraproceduralPasses runs constant propagation, liveness, and dead-
// code detection over every reachable method's own CFG concurrently: the
// methods are independent of one another, so nothing serializes them but
// the shared errgroup.Group's error propagation.
func (p *Program) runIntraproceduralPasses(ctx gocontext.Context, cg *callgraph.Graph) ([]MethodReport, error) {
	methods := cg.ReachableMethods()
	reports := make([]MethodReport, len(methods))

	g, _ := errgroup.WithContext(ctx)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			body := m.Body()
			if body == nil {
				reports[i] = MethodReport{Method: m}
				return nil
			}
			cfg := body.CFG()
			if cfg == nil {
				// Declared with no control-flow graph (e.g. a rule-file
				// target registered for dispatch only, as the taint
				// fixtures do): nothing for an intraprocedural CFG pass to
				// walk.
				reports[i] = MethodReport{Method: m}
				return nil
			}
			cp := dataflow.Solve[*lattice.CPFact](constprop.New(body.GetParams()), cfg)
			live := dataflow.Solve[*lattice.SetFact[*ir.Var]](liveness.Analysis{}, cfg)
			dead := liveness.DetectDeadCode(cfg, cp, live)
			reports[i] = MethodReport{Method: m, DeadCode: dead}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// mergeCallGraph folds src's reachable methods and edges into dst. Used to
// union several single-entry CHA runs (cha.Build only ever seeds one
// entry) into the one call graph a multi-entry-point program needs.
func mergeCallGraph(dst, src *callgraph.Graph) {
	for _, m := range src.ReachableMethods() {
		dst.MarkReachable(m)
	}
	for _, m := range src.ReachableMethods() {
		for _, e := range src.OutEdges(m) {
			dst.AddEdge(e.Site, e.Caller, e.Callee)
		}
	}
}

// collapseCSGraph drops the context-sensitive call graph's per-context
// distinctions, producing the plain per-method callgraph.Graph that icfg.
// Build and the intraprocedural passes operate over regardless of which
// pointer analysis produced it.
func collapseCSGraph(csg *cs.Graph) *callgraph.Graph {
	g := callgraph.New()
	for _, m := range csg.ReachableMethods() {
		g.MarkReachable(m.Method)
	}
	for _, m := range csg.ReachableMethods() {
		for _, e := range csg.OutEdges(m) {
			g.AddEdge(e.Site, e.Caller.Method, e.Callee.Method)
		}
	}
	return g
}

// csPointsToAdapter flattens the context-sensitive solver's per-context
// points-to sets into the context-insensitive interconst.PointsToProvider
// shape: the union, across every context a variable's owning method was
// ever analyzed under, of that variable's points-to set. The alias map
// interconst builds is deliberately context-insensitive even when the
// pointer analysis that fed it was not: interconst sits above whichever
// pointer analysis ran, reading only its final points-to query surface.
type csPointsToAdapter struct {
	solver   *cs.Solver
	varOwner map[*ir.Var]*ir.JMethod
	contexts map[*ir.JMethod]map[ir.Context]struct{}
}

var _ interconst.PointsToProvider = (*csPointsToAdapter)(nil)

func newCSPointsToAdapter(solver *cs.Solver) *csPointsToAdapter {
	a := &csPointsToAdapter{
		solver:   solver,
		varOwner: make(map[*ir.Var]*ir.JMethod),
		contexts: make(map[*ir.JMethod]map[ir.Context]struct{}),
	}
	for _, csm := range solver.CallGraph().ReachableMethods() {
		if a.contexts[csm.Method] == nil {
			a.contexts[csm.Method] = make(map[ir.Context]struct{})
		}
		a.contexts[csm.Method][csm.Ctx] = struct{}{}
		for _, v := range methodVars(csm.Method) {
			if _, ok := a.varOwner[v]; !ok {
				a.varOwner[v] = csm.Method
			}
		}
	}
	return a
}

func (a *csPointsToAdapter) PointsToSet(v *ir.Var) map[*ir.Obj]struct{} {
	out := make(map[*ir.Obj]struct{})
	owner, ok := a.varOwner[v]
	if !ok {
		return out
	}
	for ctx := range a.contexts[owner] {
		for o := range a.solver.PointsToSet(ctx, v) {
			out[o.Obj] = struct{}{}
		}
	}
	return out
}

// methodVars collects every distinct variable m's body declares, defines,
// or uses — the same traversal interconst.Build's own refVars performs,
// generalized to a single method rather than a whole program's ICFG nodes
// since it is only ever called to seed the owner map above.
func methodVars(m *ir.JMethod) []*ir.Var {
	body := m.Body()
	if body == nil {
		return nil
	}
	seen := make(map[*ir.Var]struct{})
	var out []*ir.Var
	add := func(v *ir.Var) {
		if v == nil {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, param := range body.GetParams() {
		add(param)
	}
	add(body.GetThis())
	cfg := body.CFG()
	if cfg == nil {
		return out
	}
	for _, n := range cfg.Nodes() {
		if lv, ok := n.GetDef(); ok {
			addLValueVar(lv, add)
		}
		for _, u := range n.GetUses() {
			addRValueVar(u, add)
		}
	}
	return out
}

func addLValueVar(lv ir.LValue, add func(*ir.Var)) {
	switch l := lv.(type) {
	case *ir.Var:
		add(l)
	case *ir.InstanceFieldRef:
		add(l.Base)
	case *ir.ArrayAccess:
		add(l.Base)
	}
}

func addRValueVar(rv ir.RValue, add func(*ir.Var)) {
	switch r := rv.(type) {
	case *ir.Var:
		add(r)
	case *ir.InstanceFieldRef:
		add(r.Base)
	case *ir.ArrayAccess:
		add(r.Base)
	}
}
