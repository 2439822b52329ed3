package liveness

import (
	"sort"

	"github.com/latticeflow/latticeflow/dataflow"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"
)

// DetectDeadCode performs a fused traversal: it walks the
// CFG from entry respecting control-flow feasibility implied by constant
// propagation, and excludes an assignment from the reachable set when its
// defined variable is dead after the statement and its RHS has no
// observable side effect. Returns dead statements ordered by index.
func DetectDeadCode(cfg ir.CFG, cp *dataflow.Result[*lattice.CPFact], live *dataflow.Result[*lattice.SetFact[*ir.Var]]) []ir.Stmt {
	reachable := make(map[ir.Stmt]struct{})
	visited := make(map[ir.Stmt]struct{})

	queue := []ir.Stmt{cfg.Entry()}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}

		if !isDeadAssignment(n, cp, live) {
			reachable[n] = struct{}{}
		}

		for _, succ := range feasibleSuccessors(n, cfg, cp) {
			if _, ok := visited[succ]; !ok {
				queue = append(queue, succ)
			}
		}
	}

	var dead []ir.Stmt
	for _, n := range cfg.Nodes() {
		if _, ok := reachable[n]; !ok {
			dead = append(dead, n)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].Index() < dead[j].Index() })
	return dead
}

// feasibleSuccessors narrows If/Switch edges using the constant-propagation
// fact at n; every other statement kind keeps all CFG successors.
func feasibleSuccessors(n ir.Stmt, cfg ir.CFG, cp *dataflow.Result[*lattice.CPFact]) []ir.Stmt {
	switch s := n.(type) {
	case *ir.IfStmt:
		cond := cp.GetInFact(n).Get(s.Cond)
		if !cond.IsConst() {
			return cfg.SuccsOf(n)
		}
		wantTrue := cond.ConstValue() != 0
		var out []ir.Stmt
		for _, e := range cfg.OutEdges(n) {
			if (e.Kind == ir.IfTrue && wantTrue) || (e.Kind == ir.IfFalse && !wantTrue) {
				out = append(out, e.Target)
			}
		}
		return out
	case *ir.SwitchStmt:
		val := cp.GetInFact(n).Get(s.Var)
		if !val.IsConst() {
			return cfg.SuccsOf(n)
		}
		k := val.ConstValue()
		var matched ir.Stmt
		var def ir.Stmt
		for _, e := range cfg.OutEdges(n) {
			switch e.Kind {
			case ir.SwitchCase:
				if e.Case == k {
					matched = e.Target
				}
			case ir.SwitchDefault:
				def = e.Target
			}
		}
		if matched != nil {
			return []ir.Stmt{matched}
		}
		if def != nil {
			return []ir.Stmt{def}
		}
		return nil
	default:
		return cfg.SuccsOf(n)
	}
}

func isDeadAssignment(n ir.Stmt, cp *dataflow.Result[*lattice.CPFact], live *dataflow.Result[*lattice.SetFact[*ir.Var]]) bool {
	def, ok := n.GetDef()
	if !ok {
		return false
	}
	v, ok := def.(*ir.Var)
	if !ok {
		return false
	}
	if live.GetOutFact(n).Contains(v) {
		return false
	}
	return !hasObservableSideEffect(n, cp)
}

// hasObservableSideEffect implements the exclusion list: new, field access,
// array access, and DIV/REM arithmetic all have potential effects and can
// never be dropped regardless of liveness. A call used as an Assign's RHS
// is treated the same way: its callee may have effects the core cannot see.
//
// The one carve-out is a DIV/REM whose divisor constant propagation has
// proven to be exactly CONST(0): that statement's result is UNDEF, not a
// trapped side effect the detector must preserve, so dead-code detection
// can still trigger for an assignment whose result nothing ever reads.
func hasObservableSideEffect(stmt ir.Stmt, cp *dataflow.Result[*lattice.CPFact]) bool {
	switch s := stmt.(type) {
	case *ir.NewStmt, *ir.LoadFieldStmt, *ir.LoadArrayStmt, *ir.InvokeStmt:
		return true
	case *ir.AssignStmt:
		switch rhs := s.RHS.(type) {
		case *ir.BinaryExpr:
			if rhs.Op != ir.DIV && rhs.Op != ir.REM {
				return false
			}
			divisor := cp.GetInFact(stmt).Get(rhs.Y)
			return !(divisor.IsConst() && divisor.ConstValue() == 0)
		case *ir.InvokeExpr:
			return true
		default:
			return false
		}
	default:
		return false
	}
}
