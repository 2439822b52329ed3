package testutils

import (
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestScenarioAWiresBranch(t *testing.T) {
	t.Parallel()
	s := ScenarioA()
	if s.Method.Body() == nil {
		t.Fatalf("expected a method body")
	}
	cfg := s.Method.Body().CFG()
	succs := cfg.SuccsOf(s.If)
	if len(succs) != 2 {
		t.Fatalf("expected the if statement to have two successors, got %d", len(succs))
	}
}

func TestScenarioBDivisionShape(t *testing.T) {
	t.Parallel()
	s := ScenarioB()
	stmts := s.Method.Body().GetStmts()
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	if stmts[2] != s.AssignY {
		t.Fatalf("expected the division to be the third statement")
	}
}

func TestScenarioCReturnsB(t *testing.T) {
	t.Parallel()
	s := ScenarioC()
	rv := s.Method.Body().GetReturnVars()
	if len(rv) != 1 || rv[0] != s.B {
		t.Fatalf("expected b to be the sole return var, got %v", rv)
	}
}

func TestScenarioDHierarchyShape(t *testing.T) {
	t.Parallel()
	s := ScenarioD()
	if s.Hierarchy.GetDeclaredMethod(s.ClassA, "m()") != s.MA {
		t.Fatalf("expected A.m to be declared on A")
	}
	if s.Hierarchy.GetSuperClass(s.ClassB) != s.ClassA {
		t.Fatalf("expected B to extend A")
	}
	if len(s.Hierarchy.GetDirectImplementorsOf(s.ClassI)) != 1 {
		t.Fatalf("expected A to implement I")
	}
}

func TestScenarioENewSitesDistinct(t *testing.T) {
	t.Parallel()
	s := ScenarioE()
	if s.NewT1.Expr.Class != s.ClassT1 || s.NewT2.Expr.Class != s.ClassT2 {
		t.Fatalf("expected each new site to carry its own class")
	}
}

func TestScenarioFFieldAliasShape(t *testing.T) {
	t.Parallel()
	s := ScenarioF()
	ifr, ok := s.LoadF.RHS.(*ir.InstanceFieldRef)
	if !ok || ifr.Base != s.B || ifr.Field != s.Field {
		t.Fatalf("expected the load to read field %v off b", s.Field)
	}
	if s.StoreF.RHS.Name() != "three_const" {
		t.Fatalf("expected the store to carry the constant 3 var")
	}
}

func TestScenarioGCallChainResolvable(t *testing.T) {
	t.Parallel()
	s := ScenarioG()
	if s.Hierarchy.GetDeclaredMethod(s.ClassS, s.SrcSub) == nil {
		t.Fatalf("expected S.src() to be registered")
	}
	if s.SrcCall.Container != s.Entry.Body() {
		t.Fatalf("expected the source call's container to be main's body")
	}
}
