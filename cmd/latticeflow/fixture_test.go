package main

import (
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestLoadProgramFixtureLinearBody(t *testing.T) {
	t.Parallel()

	loaded, err := loadProgramFixture([]byte(validFixture))
	if err != nil {
		t.Fatalf("loadProgramFixture: %v", err)
	}
	main := loaded.Hierarchy.GetDeclaredMethod(loaded.Classes["Main"], "")
	if main == nil {
		t.Fatalf("expected Main.<empty sub> to be registered")
	}
	body := main.Body()
	if body == nil {
		t.Fatalf("expected a body")
	}
	if len(body.GetStmts()) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(body.GetStmts()))
	}
	if len(body.GetReturnVars()) != 1 || body.GetReturnVars()[0].Name() != "z" {
		t.Fatalf("expected z as the sole return var, got %v", body.GetReturnVars())
	}
}

func TestLoadProgramFixtureBranch(t *testing.T) {
	t.Parallel()

	const branchFixture = `{
  "classes": [{"name": "Main"}],
  "methods": [
    {
      "class": "Main", "name": "main", "static": true,
      "vars": [
        {"name": "p", "type": "boolean"},
        {"name": "a", "type": "int"},
        {"name": "b", "type": "int"}
      ],
      "body": [
        {"op": "assign", "lhs": "a", "rhs": {"kind": "int", "value": 1}},
        {"op": "if", "cond": "p",
          "then": [{"op": "assign", "lhs": "b", "rhs": {"kind": "int", "value": 1}}],
          "else": [{"op": "assign", "lhs": "b", "rhs": {"kind": "int", "value": 2}}]
        },
        {"op": "return", "var": "b"}
      ]
    }
  ]
}`

	loaded, err := loadProgramFixture([]byte(branchFixture))
	if err != nil {
		t.Fatalf("loadProgramFixture: %v", err)
	}
	main := loaded.Hierarchy.GetDeclaredMethod(loaded.Classes["Main"], "")
	cfg := main.Body().CFG()

	var ifStmt ir.Stmt
	for _, s := range cfg.Nodes() {
		if s.Kind() == ir.KindIf {
			ifStmt = s
		}
	}
	if ifStmt == nil {
		t.Fatalf("expected an if statement in the CFG")
	}
	if len(cfg.SuccsOf(ifStmt)) != 2 {
		t.Fatalf("expected the if to have two successors, got %d", len(cfg.SuccsOf(ifStmt)))
	}
}

func TestLoadProgramFixtureRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	if _, err := loadProgramFixture([]byte(`{"classes": [{}], "methods": []}`)); err == nil {
		t.Fatalf("expected a schema validation error for a class with no name")
	}
}

func TestLoadProgramFixtureRejectsUnknownVar(t *testing.T) {
	t.Parallel()

	const bad = `{
  "classes": [{"name": "Main"}],
  "methods": [
    {"class": "Main", "name": "main", "static": true, "vars": [],
     "body": [{"op": "return", "var": "missing"}]}
  ]
}`
	if _, err := loadProgramFixture([]byte(bad)); err == nil {
		t.Fatalf("expected an error for an undeclared return var")
	}
}
