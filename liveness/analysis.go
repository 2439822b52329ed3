// Package liveness implements backward live-variable analysis and the
// dead-code detector built on top of it and constant propagation
//.
package liveness

import (
	"github.com/latticeflow/latticeflow/dataflow"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"
)

// Analysis is the live-variable dataflow.Analysis: backward, meet = union,
// boundary = ∅. TransferNode computes IN = (OUT ∖ def) ∪ {uses that are
// Var}, mutating the IN side per the backward calling convention
// dataflow.Solve uses.
type Analysis struct{}

var _ dataflow.Analysis[*lattice.SetFact[*ir.Var]] = Analysis{}

func (Analysis) IsForward() bool { return false }

func (Analysis) NewBoundaryFact(cfg ir.CFG) *lattice.SetFact[*ir.Var] {
	return lattice.NewSetFact[*ir.Var]()
}

func (Analysis) NewInitialFact() *lattice.SetFact[*ir.Var] {
	return lattice.NewSetFact[*ir.Var]()
}

func (Analysis) MeetInto(src, dst *lattice.SetFact[*ir.Var]) {
	dst.Union(src)
}

func (Analysis) TransferNode(stmt ir.Stmt, in, out *lattice.SetFact[*ir.Var]) bool {
	next := out.Copy()
	if def, ok := stmt.GetDef(); ok {
		if v, ok := def.(*ir.Var); ok {
			next.Remove(v)
		}
	}
	for _, use := range stmt.GetUses() {
		if v, ok := use.(*ir.Var); ok {
			next.Add(v)
		}
	}
	return in.CopyFrom(next)
}
