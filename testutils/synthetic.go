package testutils

import (
	"fmt"

	"github.com/latticeflow/latticeflow/classhierarchy"
	"github.com/latticeflow/latticeflow/ir"
)

// SyntheticProgram is the return value of GenerateFanoutProgram: a fully
// wired hierarchy plus the class table and entry point a Program needs to
// run against it.
type SyntheticProgram struct {
	Hierarchy *classhierarchy.Hierarchy
	Classes   map[string]*ir.JClass
	Entry     *ir.JMethod
}

// GenerateFanoutProgram builds a synthetic whole program with n worker
// methods, each allocating its own object, storing and reading back one of
// its fields (interconst alias stress), and carrying a full source-transfer-
// sink taint chain (pta/cs + taint overlay stress), all fanned out from a
// single main entry point. It gives a solver a corpus whose size scales with
// one integer parameter instead of hand-writing n fixtures.
func GenerateFanoutProgram(n int) *SyntheticProgram {
	workerClass := &ir.JClass{Name: "Worker"}
	payloadClass := &ir.JClass{Name: "Payload"}
	sourceClass := &ir.JClass{Name: "Source"}
	transformClass := &ir.JClass{Name: "Transform"}
	sinkClass := &ir.JClass{Name: "Sink"}
	mainClass := &ir.JClass{Name: "Main"}

	field := &ir.Field{Declaring: payloadClass, Name: "f", Type: ir.Int}

	const srcSub ir.Subsignature = "read()"
	const wrapSub ir.Subsignature = "wrap(Object)"
	const sinkSub ir.Subsignature = "consume(Object)"

	h := classhierarchy.New()

	srcMethod := &ir.JMethod{Name: "read", Declaring: sourceClass, Sub: srcSub, Static: true}
	ir.NewMethod(srcMethod, nil, nil, nil, nil, nil)
	h.AddMethod(srcMethod)

	wrapMethod := &ir.JMethod{Name: "wrap", Declaring: transformClass, Sub: wrapSub, Static: true}
	ir.NewMethod(wrapMethod, nil, nil, nil, nil, nil)
	h.AddMethod(wrapMethod)

	sinkMethod := &ir.JMethod{Name: "consume", Declaring: sinkClass, Sub: sinkSub, Static: true}
	ir.NewMethod(sinkMethod, nil, nil, nil, nil, nil)
	h.AddMethod(sinkMethod)

	mainStmts := make([]ir.Stmt, 0, n)
	mainCalls := make([]*ir.CallSite, 0, n)

	for i := 0; i < n; i++ {
		sub := ir.Subsignature(fmt.Sprintf("fanout%d()", i))
		fn := &ir.JMethod{Name: fmt.Sprintf("fanout%d", i), Declaring: workerClass, Sub: sub, Static: true}

		obj := ir.NewVar("obj", ir.Reference, 0)
		local := ir.NewVar("local", ir.Int, 1)
		constN := ir.NewVar(fmt.Sprintf("c%d_const", i), ir.Int, 2)
		t := ir.NewVar("t", ir.Reference, 3)
		wrapped := ir.NewVar("wrapped", ir.Reference, 4)

		newObj := ir.NewNewStmt(0, obj, &ir.NewExpr{Type: ir.Reference, Class: payloadClass})
		assignConst := ir.NewAssignStmt(1, constN, &ir.IntLiteral{Value: int32(i)})
		storeF := ir.NewStoreFieldStmt(2, &ir.InstanceFieldRef{Base: obj, Field: field}, constN)
		loadF := ir.NewLoadFieldStmt(3, local, &ir.InstanceFieldRef{Base: obj, Field: field})

		srcCall := &ir.CallSite{Index: 4, Kind: ir.STATIC, Declaring: sourceClass, Sub: srcSub}
		srcInvoke := ir.NewInvokeStmt(4, srcCall, t)

		wrapCall := &ir.CallSite{Index: 5, Kind: ir.STATIC, Declaring: transformClass, Sub: wrapSub, Args: []*ir.Var{t}}
		wrapInvoke := ir.NewInvokeStmt(5, wrapCall, wrapped)

		sinkCall := &ir.CallSite{Index: 6, Kind: ir.STATIC, Declaring: sinkClass, Sub: sinkSub, Args: []*ir.Var{wrapped}}
		sinkInvoke := ir.NewInvokeStmt(6, sinkCall, nil)

		stmts := []ir.Stmt{newObj, assignConst, storeF, loadF, srcInvoke, wrapInvoke, sinkInvoke}
		body := buildLinear(fn, nil, nil, stmts, []*ir.Var{local})
		srcCall.Container = body
		wrapCall.Container = body
		sinkCall.Container = body

		h.AddMethod(fn)

		callSub := sub
		callSite := &ir.CallSite{Index: i, Kind: ir.STATIC, Declaring: workerClass, Sub: callSub}
		mainCalls = append(mainCalls, callSite)
		mainStmts = append(mainStmts, ir.NewInvokeStmt(i, callSite, nil))
	}

	mainMethod := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}
	mainBody := buildLinear(mainMethod, nil, nil, mainStmts, nil)
	for _, call := range mainCalls {
		call.Container = mainBody
	}
	h.AddMethod(mainMethod)

	classes := map[string]*ir.JClass{
		"Worker":    workerClass,
		"Payload":   payloadClass,
		"Source":    sourceClass,
		"Transform": transformClass,
		"Sink":      sinkClass,
		"Main":      mainClass,
	}

	return &SyntheticProgram{Hierarchy: h, Classes: classes, Entry: mainMethod}
}
