// Package dataflow implements the generic monotone dataflow framework: the
// analysis capability set every concrete pass must implement, and the
// intraprocedural forward/backward worklist fixpoint built over it. Concrete analyses
// (constant propagation, live variables) only supply Analysis[F]; this
// package owns the CFG traversal and termination argument.
package dataflow

import "github.com/latticeflow/latticeflow/ir"

// Analysis is the capability set an intraprocedural dataflow analysis must
// provide. F is the fact type (typically a pointer-like type
// such as *lattice.CPFact or *lattice.SetFact[*ir.Var]).
//
// TransferNode receives the pair the framework has prepared for this
// iteration direction — for a forward analysis that is (physical IN,
// physical OUT) and it is expected to mutate OUT; for a backward analysis
// it is still invoked as TransferNode(stmt, physicalIN, physicalOUT) but
// the analysis mutates physicalIN instead, matching the "live analysis:
// in = (out ∖ def) ∪ uses" shape directly. Either way
// the return value reports whether the side the analysis is responsible
// for changed, computed by comparing a snapshot taken before the transfer
// ran, never merely "a write happened".
type Analysis[F any] interface {
	IsForward() bool
	NewBoundaryFact(cfg ir.CFG) F
	NewInitialFact() F
	// MeetInto merges src into dst in place (dst := dst ⊓ src).
	MeetInto(src, dst F)
	TransferNode(stmt ir.Stmt, in, out F) (changed bool)
}
