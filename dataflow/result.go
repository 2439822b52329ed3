package dataflow

import "github.com/latticeflow/latticeflow/ir"

// Result holds the fixpoint IN/OUT fact for every CFG node, keyed by
// physical CFG direction regardless of which way the analysis iterated.
type Result[F any] struct {
	in  map[ir.Stmt]F
	out map[ir.Stmt]F
}

func newResult[F any]() *Result[F] {
	return &Result[F]{in: make(map[ir.Stmt]F), out: make(map[ir.Stmt]F)}
}

// GetInFact returns the fact immediately before stmt executes.
func (r *Result[F]) GetInFact(stmt ir.Stmt) F { return r.in[stmt] }

// GetOutFact returns the fact immediately after stmt executes.
func (r *Result[F]) GetOutFact(stmt ir.Stmt) F { return r.out[stmt] }
