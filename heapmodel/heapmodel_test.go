package heapmodel

import (
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestModelReturnsSameObjectForSameSite(t *testing.T) {
	t.Parallel()

	site := ir.NewNewStmt(0, ir.NewVar("x", ir.Reference, 0), &ir.NewExpr{Type: ir.Reference})
	m := New()

	a := m.GetObj(site)
	b := m.GetObj(site)
	if a != b {
		t.Fatalf("expected repeated GetObj on the same site to return the identical object")
	}
}

func TestModelAssignsDistinctIDsAcrossSites(t *testing.T) {
	t.Parallel()

	site1 := ir.NewNewStmt(0, ir.NewVar("x", ir.Reference, 0), &ir.NewExpr{Type: ir.Reference})
	site2 := ir.NewNewStmt(1, ir.NewVar("y", ir.Reference, 1), &ir.NewExpr{Type: ir.Reference})
	m := New()

	o1 := m.GetObj(site1)
	o2 := m.GetObj(site2)
	if o1.ID() == o2.ID() {
		t.Fatalf("expected distinct ids for distinct allocation sites")
	}
}
