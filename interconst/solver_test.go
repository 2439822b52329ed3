package interconst

import (
	"testing"

	"github.com/latticeflow/latticeflow/icfg"
	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/lattice"

	"github.com/latticeflow/latticeflow/callgraph"
)

// fakePTS is a canned PointsToProvider: tests wire points-to sets directly
// rather than running a real pointer analysis, since AliasMap.Build only
// ever reads PointsToSet after Solve has returned.
type fakePTS map[*ir.Var]map[*ir.Obj]struct{}

func (f fakePTS) PointsToSet(v *ir.Var) map[*ir.Obj]struct{} { return f[v] }

func singleton(o *ir.Obj) map[*ir.Obj]struct{} { return map[*ir.Obj]struct{}{o: {}} }

// buildProgram assembles one method "main" covering every node shape the
// solver needs to exercise: a static field, an instance field reached
// through two aliasing variables, an array with both a constant and a NAC
// index, and a call to a second method whose return value flows back
// through the call-to-return/return-edge pair.
func buildProgram(t *testing.T) (*icfg.Graph, *AliasMap, *ir.JMethod, map[string]*ir.Var) {
	t.Helper()

	class := &ir.JClass{Name: "C"}
	field := &ir.Field{Declaring: class, Name: "f", Type: ir.Int}
	staticField := &ir.Field{Declaring: class, Name: "g", Static: true, Type: ir.Int}

	calleeClass := &ir.JClass{Name: "Callee"}
	const calleeSub ir.Subsignature = "bump(int)"
	calleeMethod := &ir.JMethod{Name: "bump", Declaring: calleeClass, Sub: calleeSub, Static: true}
	calleeParam := ir.NewVar("p", ir.Int, 0).MarkParam()
	calleeRet := ir.NewVar("r", ir.Int, 1)

	calleeEntry := ir.NewNopStmt(-10)
	calleeExit := ir.NewNopStmt(-11)
	calleeAssign := ir.NewAssignStmt(100, calleeRet, &ir.BinaryExpr{Op: ir.ADD, X: calleeParam, Y: calleeParam})
	calleeReturn := ir.NewReturnStmt(101, calleeRet)
	calleeCFG := ir.NewBuilder(calleeEntry, []ir.Stmt{calleeAssign, calleeReturn}, calleeExit).
		AddEdge(ir.FallThrough, 0, calleeEntry, calleeAssign).
		AddEdge(ir.FallThrough, 0, calleeAssign, calleeReturn).
		AddEdge(ir.FallThrough, 0, calleeReturn, calleeExit).
		Build()
	ir.NewMethod(calleeMethod, []*ir.Var{calleeParam}, []ir.Stmt{calleeAssign, calleeReturn}, []*ir.Var{calleeRet}, nil, calleeCFG)

	mainClass := &ir.JClass{Name: "Main"}
	mainMethod := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}

	b := ir.NewVar("b", ir.Reference, 0)
	d := ir.NewVar("d", ir.Reference, 1)
	arr := ir.NewVar("arr", ir.Reference, 2)
	constIdx := ir.NewVar("constIdx", ir.Int, 3)
	nacIdx := ir.NewVar("nacIdx", ir.Int, 4)
	storeVal := ir.NewVar("storeVal", ir.Int, 5)
	x := ir.NewVar("x", ir.Int, 6)   // instance field load through alias
	y := ir.NewVar("y", ir.Int, 7)   // static field load
	z1 := ir.NewVar("z1", ir.Int, 8) // array load, constant index match
	z2 := ir.NewVar("z2", ir.Int, 9) // array load, NAC index matches anything
	callResult := ir.NewVar("callResult", ir.Int, 11)
	three := ir.NewVar("three", ir.Int, 12)
	p := ir.NewVar("p", ir.Int, 13).MarkParam()

	newB := ir.NewNewStmt(0, b, &ir.NewExpr{Type: ir.Reference, Class: class})
	copyD := ir.NewCopyStmt(1, d, b)
	newArr := ir.NewNewStmt(2, arr, &ir.NewExpr{Type: ir.Reference})
	constIdxLit := ir.NewAssignStmt(3, constIdx, &ir.IntLiteral{Value: 0})
	storeValLit := ir.NewAssignStmt(4, storeVal, &ir.IntLiteral{Value: 7})
	storeArr := ir.NewStoreArrayStmt(5, &ir.ArrayAccess{Base: arr, Index: constIdx}, storeVal)
	storeInstance := ir.NewStoreFieldStmt(6, &ir.InstanceFieldRef{Base: b, Field: field}, storeVal)
	storeStatic := ir.NewStoreFieldStmt(7, &ir.StaticFieldRef{Field: staticField}, p)
	loadInstance := ir.NewLoadFieldStmt(8, x, &ir.InstanceFieldRef{Base: d, Field: field})
	loadStatic := ir.NewLoadFieldStmt(9, y, &ir.StaticFieldRef{Field: staticField})
	threeLit := ir.NewAssignStmt(10, three, &ir.IntLiteral{Value: 3})
	call := &ir.CallSite{Index: 0, Kind: ir.STATIC, Declaring: calleeClass, Sub: calleeSub, Args: []*ir.Var{three}}
	callStmt := ir.NewAssignStmt(11, callResult, &ir.InvokeExpr{Call: call})
	nacIdxFromParam := ir.NewCopyStmt(12, nacIdx, p)
	loadArrConst := ir.NewLoadArrayStmt(13, z1, &ir.ArrayAccess{Base: arr, Index: constIdxLit.LHS})
	loadArrNAC := ir.NewLoadArrayStmt(14, z2, &ir.ArrayAccess{Base: arr, Index: nacIdx})

	body := []ir.Stmt{
		newB, copyD, newArr, constIdxLit, storeValLit, storeArr, storeInstance, storeStatic,
		loadInstance, loadStatic, threeLit, callStmt, nacIdxFromParam, loadArrConst, loadArrNAC,
	}
	entry := ir.NewNopStmt(-1)
	exit := ir.NewNopStmt(-2)
	builder := ir.NewBuilder(entry, body, exit).AddEdge(ir.FallThrough, 0, entry, newB)
	for i := 0; i < len(body)-1; i++ {
		builder = builder.AddEdge(ir.FallThrough, 0, body[i], body[i+1])
	}
	builder = builder.AddEdge(ir.FallThrough, 0, body[len(body)-1], exit)
	cfg := builder.Build()
	ir.NewMethod(mainMethod, []*ir.Var{p}, body, nil, nil, cfg)
	call.Container = mainMethod.Body()

	cg := callgraph.New()
	cg.MarkReachable(mainMethod)
	cg.MarkReachable(calleeMethod)
	cg.AddEdge(call, mainMethod, calleeMethod)

	g := icfg.Build(cg)

	obj := ir.NewObj(newB, ir.Reference, class, 0)
	pts := fakePTS{
		b: singleton(obj),
		d: singleton(obj),
	}
	am := Build(g.Nodes(), pts)

	vars := map[string]*ir.Var{
		"x": x, "y": y, "z1": z1, "z2": z2, "callResult": callResult, "p": p,
	}
	return g, am, mainMethod, vars
}

func TestInstanceFieldLoadThroughAlias(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	exit := g.ExitOf(mainMethod)
	out := res.GetOutFact(exit)
	if got := out.Get(vars["x"]); !got.IsConst() || got.ConstValue() != 7 {
		t.Fatalf("expected x = CONST(7) (d aliases b), got %v", got)
	}
}

func TestStaticFieldLoadIsNACThroughParam(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	exit := g.ExitOf(mainMethod)
	out := res.GetOutFact(exit)
	if got := out.Get(vars["y"]); !got.IsNAC() {
		t.Fatalf("expected y = NAC (stored from the NAC entry param), got %v", got)
	}
}

func TestArrayLoadConstantIndexMatch(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	exit := g.ExitOf(mainMethod)
	out := res.GetOutFact(exit)
	if got := out.Get(vars["z1"]); !got.IsConst() || got.ConstValue() != 7 {
		t.Fatalf("expected z1 = CONST(7) via matching constant index, got %v", got)
	}
}

func TestArrayLoadNACIndexAlwaysMatches(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	exit := g.ExitOf(mainMethod)
	out := res.GetOutFact(exit)
	if got := out.Get(vars["z2"]); !got.IsConst() || got.ConstValue() != 7 {
		t.Fatalf("expected z2 = CONST(7), a NAC index must still match the only store, got %v", got)
	}
}

func TestCallEdgeAndReturnEdgeRoundTrip(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	exit := g.ExitOf(mainMethod)
	out := res.GetOutFact(exit)
	if got := out.Get(vars["callResult"]); !got.IsConst() || got.ConstValue() != 6 {
		t.Fatalf("expected callResult = CONST(6) (bump(3) = 3+3), got %v", got)
	}
}

func TestEntryParamIsNAC(t *testing.T) {
	t.Parallel()

	g, am, mainMethod, vars := buildProgram(t)
	res := Solve(g, am, []*ir.JMethod{mainMethod})

	entry := g.EntryOf(mainMethod)
	out := res.GetOutFact(entry)
	if got := out.Get(vars["p"]); !got.IsNAC() {
		t.Fatalf("expected entry method's int-holding parameter to be NAC, got %v", got)
	}
}

func TestMeetFactIntoEmptyDst(t *testing.T) {
	t.Parallel()

	dst := lattice.NewCPFact()
	src := lattice.NewCPFact()
	v := ir.NewVar("v", ir.Int, 0)
	src.Update(v, lattice.Const(9))
	meetFactInto(src, dst)
	if got := dst.Get(v); !got.IsConst() || got.ConstValue() != 9 {
		t.Fatalf("expected meetFactInto to copy src's values into an empty dst, got %v", got)
	}
}
