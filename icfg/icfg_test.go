package icfg

import (
	"testing"

	"github.com/latticeflow/latticeflow/callgraph"
	"github.com/latticeflow/latticeflow/ir"
)

// buildCallerCallee constructs two methods: caller has a single statement
// invoking callee and assigning its result, callee is a single return
// statement. Returns (cg, caller, callee, callStmt, succStmt).
func buildCallerCallee() (*callgraph.Graph, *ir.JMethod, *ir.JMethod, ir.Stmt, ir.Stmt) {
	calleeClass := &ir.JClass{Name: "Callee"}
	const calleeSub ir.Subsignature = "get()"
	calleeRet := ir.NewVar("r", ir.Int, 0)
	calleeMethod := &ir.JMethod{Name: "get", Declaring: calleeClass, Sub: calleeSub, Static: true}

	calleeEntry := ir.NewNopStmt(-1)
	calleeExit := ir.NewNopStmt(-2)
	calleeAssign := ir.NewAssignStmt(0, calleeRet, &ir.IntLiteral{Value: 1})
	calleeReturn := ir.NewReturnStmt(1, calleeRet)
	calleeCFG := ir.NewBuilder(calleeEntry, []ir.Stmt{calleeAssign, calleeReturn}, calleeExit).
		AddEdge(ir.FallThrough, 0, calleeEntry, calleeAssign).
		AddEdge(ir.FallThrough, 0, calleeAssign, calleeReturn).
		AddEdge(ir.FallThrough, 0, calleeReturn, calleeExit).
		Build()
	ir.NewMethod(calleeMethod, nil, []ir.Stmt{calleeAssign, calleeReturn}, []*ir.Var{calleeRet}, nil, calleeCFG)

	callerClass := &ir.JClass{Name: "Caller"}
	callerMethod := &ir.JMethod{Name: "main", Declaring: callerClass, Static: true}
	x := ir.NewVar("x", ir.Int, 0)
	call := &ir.CallSite{Index: 0, Kind: ir.STATIC, Declaring: calleeClass, Sub: calleeSub}
	callStmt := ir.NewInvokeStmt(0, call, x)
	succStmt := ir.NewNopStmt(1)

	callerEntry := ir.NewNopStmt(-3)
	callerExit := ir.NewNopStmt(-4)
	callerCFG := ir.NewBuilder(callerEntry, []ir.Stmt{callStmt, succStmt}, callerExit).
		AddEdge(ir.FallThrough, 0, callerEntry, callStmt).
		AddEdge(ir.FallThrough, 0, callStmt, succStmt).
		AddEdge(ir.FallThrough, 0, succStmt, callerExit).
		Build()
	ir.NewMethod(callerMethod, nil, []ir.Stmt{callStmt, succStmt}, nil, nil, callerCFG)
	call.Container = callerMethod.Body()

	cg := callgraph.New()
	cg.MarkReachable(callerMethod)
	cg.MarkReachable(calleeMethod)
	cg.AddEdge(call, callerMethod, calleeMethod)

	return cg, callerMethod, calleeMethod, callStmt, succStmt
}

func TestBuildGluesCallAndReturnEdges(t *testing.T) {
	t.Parallel()

	cg, callerMethod, calleeMethod, callStmt, succStmt := buildCallerCallee()
	g := Build(cg)

	calleeEntry := g.EntryOf(calleeMethod)
	calleeExit := g.ExitOf(calleeMethod)

	var sawCall, sawReturn, sawCallToReturn bool
	for _, e := range g.OutEdges(callStmt) {
		switch e.Kind {
		case CallEdge:
			if e.To != calleeEntry {
				t.Fatalf("expected CallEdge to target callee entry, got %v", e.To)
			}
			sawCall = true
		case CallToReturnEdge:
			if e.To != succStmt {
				t.Fatalf("expected CallToReturnEdge to target the caller's successor, got %v", e.To)
			}
			sawCallToReturn = true
		default:
			t.Fatalf("unexpected edge kind %v out of the callsite", e.Kind)
		}
	}
	if !sawCall || !sawCallToReturn {
		t.Fatalf("expected both a CallEdge and a CallToReturnEdge out of the callsite, got call=%v c2r=%v", sawCall, sawCallToReturn)
	}

	for _, e := range g.OutEdges(calleeExit) {
		if e.Kind == ReturnEdge && e.To == succStmt {
			sawReturn = true
		}
	}
	if !sawReturn {
		t.Fatalf("expected a ReturnEdge from the callee's exit to the caller's successor")
	}

	if g.MethodOf(callStmt) != callerMethod {
		t.Fatalf("expected MethodOf(callStmt) to be the caller method")
	}
	if g.MethodOf(calleeEntry) != calleeMethod {
		t.Fatalf("expected MethodOf(calleeEntry) to be the callee method")
	}
}

func TestBuildLeavesNormalEdgesForNonCallStatements(t *testing.T) {
	t.Parallel()

	cg, _, calleeMethod, _, _ := buildCallerCallee()
	g := Build(cg)

	calleeEntry := g.EntryOf(calleeMethod)
	succs := g.SuccsOf(calleeEntry)
	if len(succs) != 1 {
		t.Fatalf("expected callee entry to have exactly one ordinary successor, got %d", len(succs))
	}
	found := false
	for _, e := range g.OutEdges(calleeEntry) {
		if e.Kind == NormalEdge {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected callee entry's out-edge to be a NormalEdge")
	}
}
