// Package testutils provides a set of hand-checked program scenarios
// (labeled A-G) and a synthetic-program generator, giving every analysis
// package one shared corpus to test and benchmark against.
package testutils

import (
	"github.com/latticeflow/latticeflow/classhierarchy"
	"github.com/latticeflow/latticeflow/ir"
)

// buildLinear wires a straight-line CFG (entry -> stmts... -> exit) and
// attaches it to ref, returning the constructed body. Every scenario below
// that has no branching reuses this instead of hand-rolling CFG edges.
func buildLinear(ref *ir.JMethod, params []*ir.Var, this *ir.Var, stmts []ir.Stmt, returnVars []*ir.Var) *ir.Method {
	entry := ir.NewNopStmt(-1)
	exit := ir.NewNopStmt(len(stmts))
	b := ir.NewBuilder(entry, stmts, exit)
	var prev ir.Stmt = entry
	for _, s := range stmts {
		b.AddEdge(ir.FallThrough, 0, prev, s)
		prev = s
	}
	b.AddEdge(ir.FallThrough, 0, prev, exit)
	return ir.NewMethod(ref, params, stmts, returnVars, this, b.Build())
}

// ScenarioA is the constant-meet fixture:
//
//	a = 1; b = 2; if (p) a = 2 else b = 1; c = a + b;
//
// Expected at exit: a = NAC, b = NAC, c = CONST(3).
type ScenarioAFixture struct {
	Method       *ir.JMethod
	P, A, B, C   *ir.Var
	AssignA1     *ir.AssignStmt
	AssignB2     *ir.AssignStmt
	If           *ir.IfStmt
	AssignA2     *ir.AssignStmt
	AssignB1     *ir.AssignStmt
	AssignC      *ir.AssignStmt
}

func ScenarioA() *ScenarioAFixture {
	class := &ir.JClass{Name: "Main"}
	ref := &ir.JMethod{Name: "main", Declaring: class, Static: true}

	p := ir.NewVar("p", ir.Boolean, 0).MarkParam()
	a := ir.NewVar("a", ir.Int, 1)
	b := ir.NewVar("b", ir.Int, 2)
	c := ir.NewVar("c", ir.Int, 3)

	assignA1 := ir.NewAssignStmt(0, a, &ir.IntLiteral{Value: 1})
	assignB2 := ir.NewAssignStmt(1, b, &ir.IntLiteral{Value: 2})
	ifStmt := ir.NewIfStmt(2, p)
	assignA2 := ir.NewAssignStmt(3, a, &ir.IntLiteral{Value: 2})
	assignB1 := ir.NewAssignStmt(4, b, &ir.IntLiteral{Value: 1})
	assignC := ir.NewAssignStmt(5, c, &ir.BinaryExpr{Op: ir.ADD, X: a, Y: b})

	entry := ir.NewNopStmt(-1)
	exit := ir.NewNopStmt(6)
	body := []ir.Stmt{assignA1, assignB2, ifStmt, assignA2, assignB1, assignC}
	cfg := ir.NewBuilder(entry, body, exit).
		AddEdge(ir.FallThrough, 0, entry, assignA1).
		AddEdge(ir.FallThrough, 0, assignA1, assignB2).
		AddEdge(ir.FallThrough, 0, assignB2, ifStmt).
		AddEdge(ir.IfTrue, 0, ifStmt, assignA2).
		AddEdge(ir.IfFalse, 0, ifStmt, assignB1).
		AddEdge(ir.FallThrough, 0, assignA2, assignC).
		AddEdge(ir.FallThrough, 0, assignB1, assignC).
		AddEdge(ir.FallThrough, 0, assignC, exit).
		Build()
	ir.NewMethod(ref, []*ir.Var{p}, body, nil, nil, cfg)

	return &ScenarioAFixture{
		Method: ref, P: p, A: a, B: b, C: c,
		AssignA1: assignA1, AssignB2: assignB2, If: ifStmt,
		AssignA2: assignA2, AssignB1: assignB1, AssignC: assignC,
	}
}

// ScenarioBFixture is the division-by-zero fixture:
//
//	x = 0; ten = 10; y = ten / x;
//
// Expected: y = UNDEF, and (per DESIGN.md's resolution of the tension
// between constant propagation and liveness) the division is reported dead
// since y is unused.
type ScenarioBFixture struct {
	Method           *ir.JMethod
	X, Ten, Y         *ir.Var
	AssignY          *ir.AssignStmt
}

func ScenarioB() *ScenarioBFixture {
	class := &ir.JClass{Name: "Main"}
	ref := &ir.JMethod{Name: "main", Declaring: class, Static: true}

	x := ir.NewVar("x", ir.Int, 0)
	ten := ir.NewVar("ten", ir.Int, 1)
	y := ir.NewVar("y", ir.Int, 2)

	assignX := ir.NewAssignStmt(0, x, &ir.IntLiteral{Value: 0})
	assignTen := ir.NewAssignStmt(1, ten, &ir.IntLiteral{Value: 10})
	assignY := ir.NewAssignStmt(2, y, &ir.BinaryExpr{Op: ir.DIV, X: ten, Y: x})

	buildLinear(ref, nil, nil, []ir.Stmt{assignX, assignTen, assignY}, nil)

	return &ScenarioBFixture{Method: ref, X: x, Ten: ten, Y: y, AssignY: assignY}
}

// ScenarioCFixture is the live-variable fixture:
//
//	a = 1; b = a + 2; return b;
type ScenarioCFixture struct {
	Method            *ir.JMethod
	A, B              *ir.Var
	AssignA, AssignB  *ir.AssignStmt
	Ret               *ir.ReturnStmt
}

func ScenarioC() *ScenarioCFixture {
	class := &ir.JClass{Name: "Main"}
	ref := &ir.JMethod{Name: "main", Declaring: class, Static: true}

	a := ir.NewVar("a", ir.Int, 0)
	two := ir.NewVar("two_const", ir.Int, 1)
	b := ir.NewVar("b", ir.Int, 2)

	assignA := ir.NewAssignStmt(0, a, &ir.IntLiteral{Value: 1})
	assignTwo := ir.NewAssignStmt(1, two, &ir.IntLiteral{Value: 2})
	assignB := ir.NewAssignStmt(2, b, &ir.BinaryExpr{Op: ir.ADD, X: a, Y: two})
	ret := ir.NewReturnStmt(3, b)

	buildLinear(ref, nil, nil, []ir.Stmt{assignA, assignTwo, assignB, ret}, []*ir.Var{b})

	return &ScenarioCFixture{Method: ref, A: a, B: b, AssignA: assignA, AssignB: assignB, Ret: ret}
}

// ScenarioDFixture is the CHA-virtual-dispatch fixture: interface I
// declares m; A implements I and overrides m; B extends A and overrides m
// again. A callsite i.m() on declared type I must resolve to {A.m, B.m}.
type ScenarioDFixture struct {
	Hierarchy        *classhierarchy.Hierarchy
	ClassI, ClassA, ClassB *ir.JClass
	MI, MA, MB       *ir.JMethod
	Entry            *ir.JMethod
	Call             *ir.CallSite
}

func ScenarioD() *ScenarioDFixture {
	const sub ir.Subsignature = "m()"

	classI := &ir.JClass{Name: "I", IsInterface: true}
	classA := &ir.JClass{Name: "A"}
	classB := &ir.JClass{Name: "B"}

	mI := &ir.JMethod{Name: "m", Declaring: classI, Sub: sub, Abstract: true}
	mA := &ir.JMethod{Name: "m", Declaring: classA, Sub: sub}
	mB := &ir.JMethod{Name: "m", Declaring: classB, Sub: sub}
	buildLinear(mA, nil, ir.NewVar("this", ir.Reference, 0).MarkThis(), nil, nil)
	buildLinear(mB, nil, ir.NewVar("this", ir.Reference, 0).MarkThis(), nil, nil)

	h := classhierarchy.New()
	h.AddImplements(classA, classI)
	h.SetSuperClass(classB, classA)
	h.AddMethod(mI)
	h.AddMethod(mA)
	h.AddMethod(mB)

	iVar := ir.NewVar("i", ir.Reference, 0)
	call := &ir.CallSite{Index: 0, Kind: ir.INTERFACE, Declaring: classI, Sub: sub, Recv: iVar}
	invoke := ir.NewInvokeStmt(0, call, nil)

	mainClass := &ir.JClass{Name: "Main"}
	entry := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}
	body := buildLinear(entry, nil, nil, []ir.Stmt{invoke}, nil)
	call.Container = body

	return &ScenarioDFixture{Hierarchy: h, ClassI: classI, ClassA: classA, ClassB: classB, MI: mI, MA: mA, MB: mB, Entry: entry, Call: call}
}

// ScenarioEFixture is the context-insensitive pointer fixture:
//
//	x = new T1(); y = new T2(); x = y;
//
// Expected pts(x) = {o1, o2}, pts(y) = {o2}.
type ScenarioEFixture struct {
	Method         *ir.JMethod
	X, Y           *ir.Var
	NewT1, NewT2   *ir.NewStmt
	ClassT1, ClassT2 *ir.JClass
}

func ScenarioE() *ScenarioEFixture {
	class := &ir.JClass{Name: "Main"}
	ref := &ir.JMethod{Name: "main", Declaring: class, Static: true}

	classT1 := &ir.JClass{Name: "T1"}
	classT2 := &ir.JClass{Name: "T2"}

	x := ir.NewVar("x", ir.Reference, 0)
	y := ir.NewVar("y", ir.Reference, 1)

	newT1 := ir.NewNewStmt(0, x, &ir.NewExpr{Type: ir.Reference, Class: classT1})
	newT2 := ir.NewNewStmt(1, y, &ir.NewExpr{Type: ir.Reference, Class: classT2})
	copyXY := ir.NewCopyStmt(2, x, y)

	buildLinear(ref, nil, nil, []ir.Stmt{newT1, newT2, copyXY}, nil)

	return &ScenarioEFixture{Method: ref, X: x, Y: y, NewT1: newT1, NewT2: newT2, ClassT1: classT1, ClassT2: classT2}
}

// ScenarioFFixture is the inter-constant-propagation-via-alias
// fixture:
//
//	a = new C(); a.f = 3; b = a; c = b.f;
//
// Expected c = CONST(3), since pts(a) = pts(b) after the copy.
type ScenarioFFixture struct {
	Method   *ir.JMethod
	A, B, C  *ir.Var
	Field    *ir.Field
	NewA     *ir.NewStmt
	StoreF   *ir.StoreFieldStmt
	LoadF    *ir.LoadFieldStmt
}

func ScenarioF() *ScenarioFFixture {
	class := &ir.JClass{Name: "Main"}
	ref := &ir.JMethod{Name: "main", Declaring: class, Static: true}

	classC := &ir.JClass{Name: "C"}
	field := &ir.Field{Declaring: classC, Name: "f", Type: ir.Int}

	a := ir.NewVar("a", ir.Reference, 0)
	b := ir.NewVar("b", ir.Reference, 1)
	c := ir.NewVar("c", ir.Int, 2)
	three := ir.NewVar("three_const", ir.Int, 3)

	newA := ir.NewNewStmt(0, a, &ir.NewExpr{Type: ir.Reference, Class: classC})
	assignThree := ir.NewAssignStmt(1, three, &ir.IntLiteral{Value: 3})
	storeF := ir.NewStoreFieldStmt(2, &ir.InstanceFieldRef{Base: a, Field: field}, three)
	copyAB := ir.NewCopyStmt(3, b, a)
	loadF := ir.NewLoadFieldStmt(4, c, &ir.InstanceFieldRef{Base: b, Field: field})

	buildLinear(ref, nil, nil, []ir.Stmt{newA, assignThree, storeF, copyAB, loadF}, nil)

	return &ScenarioFFixture{Method: ref, A: a, B: b, C: c, Field: field, NewA: newA, StoreF: storeF, LoadF: loadF}
}

// ScenarioGFixture is the taint-flow fixture:
//
//	t = S.src(); u = U.wrap(t); K.sink(u);
//
// with S.src a Source, U.wrap(arg0 -> result) a Transfer, K.sink(arg0) a
// Sink. Exactly one TaintFlow is expected. Grounded directly on
// taint/overlay_test.go's TestSourceTransferSink, generalized into a
// reusable fixture.
type ScenarioGFixture struct {
	Hierarchy                 *classhierarchy.Hierarchy
	ClassS, ClassU, ClassK    *ir.JClass
	SrcSub, WrapSub, SinkSub  ir.Subsignature
	Entry                     *ir.JMethod
	SrcCall, WrapCall, SinkCall *ir.CallSite
}

func ScenarioG() *ScenarioGFixture {
	const srcSub ir.Subsignature = "src()"
	const wrapSub ir.Subsignature = "wrap(Object)"
	const sinkSub ir.Subsignature = "sink(Object)"

	sClass := &ir.JClass{Name: "S"}
	uClass := &ir.JClass{Name: "U"}
	kClass := &ir.JClass{Name: "K"}

	h := classhierarchy.New()

	srcMethod := &ir.JMethod{Name: "src", Declaring: sClass, Sub: srcSub, Static: true}
	ir.NewMethod(srcMethod, nil, nil, nil, nil, nil)
	h.AddMethod(srcMethod)

	wrapMethod := &ir.JMethod{Name: "wrap", Declaring: uClass, Sub: wrapSub, Static: true}
	ir.NewMethod(wrapMethod, nil, nil, nil, nil, nil)
	h.AddMethod(wrapMethod)

	sinkMethod := &ir.JMethod{Name: "sink", Declaring: kClass, Sub: sinkSub, Static: true}
	ir.NewMethod(sinkMethod, nil, nil, nil, nil, nil)
	h.AddMethod(sinkMethod)

	tVar := ir.NewVar("t", ir.Reference, 0)
	uVar := ir.NewVar("u", ir.Reference, 1)

	srcCall := &ir.CallSite{Index: 0, Kind: ir.STATIC, Declaring: sClass, Sub: srcSub}
	wrapCall := &ir.CallSite{Index: 1, Kind: ir.STATIC, Declaring: uClass, Sub: wrapSub, Args: []*ir.Var{tVar}}
	sinkCall := &ir.CallSite{Index: 2, Kind: ir.STATIC, Declaring: kClass, Sub: sinkSub, Args: []*ir.Var{uVar}}

	srcInvoke := ir.NewInvokeStmt(0, srcCall, tVar)
	wrapInvoke := ir.NewInvokeStmt(1, wrapCall, uVar)
	sinkInvoke := ir.NewInvokeStmt(2, sinkCall, nil)

	mainClass := &ir.JClass{Name: "Main"}
	entry := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}
	body := buildLinear(entry, nil, nil, []ir.Stmt{srcInvoke, wrapInvoke, sinkInvoke}, nil)
	srcCall.Container = body
	wrapCall.Container = body
	sinkCall.Container = body

	return &ScenarioGFixture{
		Hierarchy: h, ClassS: sClass, ClassU: uClass, ClassK: kClass,
		SrcSub: srcSub, WrapSub: wrapSub, SinkSub: sinkSub,
		Entry: entry, SrcCall: srcCall, WrapCall: wrapCall, SinkCall: sinkCall,
	}
}
