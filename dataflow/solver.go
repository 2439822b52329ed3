package dataflow

import (
	"github.com/latticeflow/latticeflow/internal/worklist"
	"github.com/latticeflow/latticeflow/ir"
)

// Solve runs analysis to a fixpoint over cfg using a worklist algorithm.
//
// Forward: OUT(entry) = NewBoundaryFact; every other node's IN and OUT
// start at NewInitialFact (bottom). A popped node n gets a fresh IN(n) by
// meeting OUT over all of n's predecessors, then TransferNode(n, IN, OUT)
// is run; if it reports change, n's successors are (re)enqueued.
//
// Backward is the exact mirror: boundary is the exit node, IN/OUT swap
// roles, and predecessors/successors swap.
func Solve[F any](analysis Analysis[F], cfg ir.CFG) *Result[F] {
	forward := analysis.IsForward()
	res := newResult[F]()

	var boundary ir.Stmt
	if forward {
		boundary = cfg.Entry()
	} else {
		boundary = cfg.Exit()
	}

	nodes := cfg.Nodes()
	for _, n := range nodes {
		res.in[n] = analysis.NewInitialFact()
		res.out[n] = analysis.NewInitialFact()
	}
	if forward {
		res.out[boundary] = analysis.NewBoundaryFact(cfg)
	} else {
		res.in[boundary] = analysis.NewBoundaryFact(cfg)
	}

	wl := worklist.New[ir.Stmt]()
	for _, n := range nodes {
		if n != boundary {
			wl.Push(n)
		}
	}

	for {
		n, ok := wl.Pop()
		if !ok {
			break
		}

		var changed bool
		if forward {
			merged := analysis.NewInitialFact()
			for _, p := range cfg.PredsOf(n) {
				analysis.MeetInto(res.out[p], merged)
			}
			res.in[n] = merged
			changed = analysis.TransferNode(n, res.in[n], res.out[n])
		} else {
			merged := analysis.NewInitialFact()
			for _, s := range cfg.SuccsOf(n) {
				analysis.MeetInto(res.in[s], merged)
			}
			res.out[n] = merged
			changed = analysis.TransferNode(n, res.in[n], res.out[n])
		}

		if !changed {
			continue
		}
		var neighbors []ir.Stmt
		if forward {
			neighbors = cfg.SuccsOf(n)
		} else {
			neighbors = cfg.PredsOf(n)
		}
		for _, m := range neighbors {
			if m != boundary {
				wl.Push(m)
			}
		}
	}

	return res
}
