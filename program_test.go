package latticeflow

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/latticeflow/latticeflow/classhierarchy"
	"github.com/latticeflow/latticeflow/config"
	"github.com/latticeflow/latticeflow/heapmodel"
	"github.com/latticeflow/latticeflow/ir"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// TestAnalyzeInsensitiveReportsDeadCode builds a single-method program
// (x = 5 is never read; z = 1; return z) and expects the context-
// insensitive pipeline to both resolve the configured entry point and
// report x's assignment as dead.
func TestAnalyzeInsensitiveReportsDeadCode(t *testing.T) {
	t.Parallel()

	mainClass := &ir.JClass{Name: "Main"}
	main := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}

	x := ir.NewVar("x", ir.Int, 0)
	z := ir.NewVar("z", ir.Int, 1)
	assignX := ir.NewAssignStmt(0, x, &ir.IntLiteral{Value: 5})
	assignZ := ir.NewAssignStmt(1, z, &ir.IntLiteral{Value: 1})
	ret := ir.NewReturnStmt(2, z)

	entry := ir.NewNopStmt(-1)
	exit := ir.NewNopStmt(3)
	cfg := ir.NewBuilder(entry, []ir.Stmt{assignX, assignZ, ret}, exit).
		AddEdge(ir.FallThrough, 0, entry, assignX).
		AddEdge(ir.FallThrough, 0, assignX, assignZ).
		AddEdge(ir.FallThrough, 0, assignZ, ret).
		AddEdge(ir.FallThrough, 0, ret, exit).
		Build()
	ir.NewMethod(main, nil, []ir.Stmt{assignX, assignZ, ret}, []*ir.Var{z}, nil, cfg)

	h := classhierarchy.New()
	h.AddMethod(main)

	opts := &config.AnalysisOptions{
		EntryPoints: []string{"Main."},
		Context:     config.Insensitive,
	}
	classes := map[string]*ir.JClass{"Main": mainClass}

	p := NewProgram(h, heapmodel.New(), classes, opts, testLogger())

	if _, err := p.Report(); err != ErrNotAnalyzed {
		t.Fatalf("expected ErrNotAnalyzed before Analyze, got %v", err)
	}

	if err := p.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report, err := p.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.ReachableMethods != 1 {
		t.Fatalf("expected exactly one reachable method, got %d", report.ReachableMethods)
	}
	if len(report.PerMethod) != 1 {
		t.Fatalf("expected one per-method report, got %d", len(report.PerMethod))
	}
	found := false
	for _, s := range report.PerMethod[0].DeadCode {
		if s == assignX {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected x's unused assignment to be reported dead, got %+v", report.PerMethod[0].DeadCode)
	}
}

func TestAnalyzeRejectsUnresolvableEntryPoints(t *testing.T) {
	t.Parallel()

	h := classhierarchy.New()
	opts := &config.AnalysisOptions{EntryPoints: []string{"Missing.doesNotExist()"}, Context: config.Insensitive}
	p := NewProgram(h, heapmodel.New(), map[string]*ir.JClass{}, opts, testLogger())

	if err := p.Analyze(context.Background()); err != ErrNoEntryPoints {
		t.Fatalf("expected ErrNoEntryPoints, got %v", err)
	}
}

// TestAnalyzeContextSensitiveFindsTaintFlow builds source/transfer/
// sink scenario (t = S.src(); u = U.wrap(t); K.sink(u)) and runs it through
// the context-sensitive pipeline with a taint config file on disk,
// confirming Program wires the overlay in before Solve and surfaces its
// flow in the final report.
func TestAnalyzeContextSensitiveFindsTaintFlow(t *testing.T) {
	t.Parallel()

	sClass := &ir.JClass{Name: "S"}
	uClass := &ir.JClass{Name: "U"}
	kClass := &ir.JClass{Name: "K"}
	mainClass := &ir.JClass{Name: "Main"}

	const srcSub ir.Subsignature = "src()"
	const wrapSub ir.Subsignature = "wrap(Object)"
	const sinkSub ir.Subsignature = "sink(Object)"

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

	main := &ir.JMethod{Name: "main", Declaring: mainClass, Static: true}
	ir.NewMethod(main, nil, []ir.Stmt{srcInvoke, wrapInvoke, sinkInvoke}, nil, nil, nil)
	srcCall.Container = main.Body()
	wrapCall.Container = main.Body()
	sinkCall.Container = main.Body()
	h.AddMethod(main)

	taintYAML := `
sources:
  - class: S
    method: "src()"
    resultType: tainted
transfers:
  - class: U
    method: "wrap(Object)"
    from: {kind: arg, index: 0}
    to: {kind: result}
    outputType: wrapped
sinks:
  - class: K
    method: "sink(Object)"
    argIndex: 0
`
	path := filepath.Join(t.TempDir(), "taint.yaml")
	if err := os.WriteFile(path, []byte(taintYAML), 0o600); err != nil {
		t.Fatalf("write taint config: %v", err)
	}

	opts := &config.AnalysisOptions{
		EntryPoints:     []string{"Main."},
		Context:         config.KCFA,
		KCFALimit:       1,
		TaintConfigPath: path,
	}
	classes := map[string]*ir.JClass{"S": sClass, "U": uClass, "K": kClass, "Main": mainClass}

	p := NewProgram(h, heapmodel.New(), classes, opts, testLogger())
	if err := p.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	report, err := p.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.TaintFlows) != 1 {
		t.Fatalf("expected exactly one taint flow, got %d: %+v", len(report.TaintFlows), report.TaintFlows)
	}
	f := report.TaintFlows[0]
	if f.Source != srcCall || f.Sink != sinkCall || f.SinkArgIndex != 0 {
		t.Fatalf("unexpected taint flow: %+v", f)
	}
}
