// Package constprop implements intraprocedural constant propagation
//: a forward dataflow.Analysis over lattice.CPFact that plugs
// straight into dataflow.Solve.
package constprop

import (
	"github.com/latticeflow/latticeflow/dataflow"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"
)

// Analysis is the per-method constant propagation instance. It is
// stateless across runs beyond the parameter list needed to build the
// boundary fact, so one value can be reused for repeated Solve calls.
type Analysis struct {
	params []*ir.Var
}

// New builds the analysis for a method with the given parameter list
//.
func New(params []*ir.Var) *Analysis {
	return &Analysis{params: params}
}

var _ dataflow.Analysis[*lattice.CPFact] = (*Analysis)(nil)

func (a *Analysis) IsForward() bool { return true }

func (a *Analysis) NewBoundaryFact(cfg ir.CFG) *lattice.CPFact {
	f := lattice.NewCPFact()
	for _, p := range a.params {
		if p.Type().IsIntHolding() {
			f.Update(p, lattice.NAC())
		}
	}
	return f
}

func (a *Analysis) NewInitialFact() *lattice.CPFact { return lattice.NewCPFact() }

func (a *Analysis) MeetInto(src, dst *lattice.CPFact) {
	src.ForEach(func(v *ir.Var, val lattice.Value) {
		dst.Update(v, lattice.Meet(dst.Get(v), val))
	})
}

func (a *Analysis) TransferNode(stmt ir.Stmt, in, out *lattice.CPFact) bool {
	next := in.Copy()

	switch s := stmt.(type) {
	case *ir.AssignStmt:
		if s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, evalRHS(in, s.RHS))
		}
	case *ir.CopyStmt:
		if s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, in.Get(s.RHS))
		}
	case *ir.NewStmt:
		if s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, lattice.NAC())
		}
	case *ir.LoadFieldStmt:
		if s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, lattice.NAC())
		}
	case *ir.LoadArrayStmt:
		if s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, lattice.NAC())
		}
	case *ir.InvokeStmt:
		if s.LHS != nil && s.LHS.Type().IsIntHolding() {
			next.Update(s.LHS, lattice.NAC())
		}
	}

	return out.CopyFrom(next)
}

// Eval computes the constant-propagation value of an rvalue under fact in,
// exported so the interprocedural solver (package interconst) can delegate
// non-call statements to the exact same transfer.
func Eval(in *lattice.CPFact, rhs ir.RValue) lattice.Value { return evalRHS(in, rhs) }

// evalRHS computes the constant-propagation value of an Assign's RHS.
// Var, IntLiteral and BinaryExpr are evaluated; any other shape (an
// InvokeExpr, for instance) evaluates to NAC.
func evalRHS(in *lattice.CPFact, rhs ir.RValue) lattice.Value {
	switch r := rhs.(type) {
	case *ir.Var:
		return in.Get(r)
	case *ir.IntLiteral:
		return lattice.Const(r.Value)
	case *ir.BinaryExpr:
		return evalBinary(in, r)
	default:
		return lattice.NAC()
	}
}

func evalBinary(in *lattice.CPFact, b *ir.BinaryExpr) lattice.Value {
	x, y := in.Get(b.X), in.Get(b.Y)
	if (b.Op == ir.DIV || b.Op == ir.REM) && y.IsConst() && y.ConstValue() == 0 {
		return lattice.Undef()
	}
	if b.Op < ir.ADD || b.Op > ir.GE || !b.X.Type().IsIntHolding() || !b.Y.Type().IsIntHolding() {
		return lattice.NAC()
	}
	if x.IsNAC() || y.IsNAC() {
		return lattice.NAC()
	}
	if x.IsUndef() || y.IsUndef() {
		return lattice.Undef()
	}
	result, isUndef := evaluate(b.Op, x.ConstValue(), y.ConstValue())
	if isUndef {
		return lattice.Undef()
	}
	return lattice.Const(result)
}
