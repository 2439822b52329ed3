package taint

import (
	"sort"

	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/pta/cs"
)

// TaintFlow records one confirmed path from a tainted source to a sink
// argument").
type TaintFlow struct {
	Source      *ir.CallSite
	Sink        *ir.CallSite
	SinkArgIndex int
}

// taintKey dedups taint objects by (source callsite, declared type), the
// exact pair data model names; see rules.go's TypeTag doc for why
// an Open Question keeps these distinct rather than collapsing by source
// alone.
type taintKey struct {
	source *ir.CallSite
	typ    TypeTag
}

// transferReg remembers one resolved transfer edge so that when the
// "from" variable's points-to set later gains a tainted object, the
// overlay can re-mint and push it onto "to".
type transferReg struct {
	to         cs.CSVar
	outputType TypeTag
}

type sinkRecord struct {
	call *ir.CallSite
	argv cs.CSVar
}

// Overlay is a pta/cs.Hook that matches resolved calls against Source/
// Transfer/Sink rules, maintains the re-minted taint objects' provenance,
// and reports confirmed flows once the pointer analysis fixpoint settles.
type Overlay struct {
	solver *cs.Solver

	sources   map[sig][]Source
	transfers map[sig][]Transfer
	sinks     map[sig][]Sink

	objects    map[taintKey]*ir.Obj
	provenance map[*ir.Obj]*ir.CallSite

	transfersByFrom map[cs.CSVar][]transferReg
	recordedSinks   []sinkRecord

	nextObjID int
}

var _ cs.Hook = (*Overlay)(nil)

// New constructs a taint overlay from a rule configuration. Register it
// with solver.AddHook before calling solver.Solve.
func New(solver *cs.Solver, cfg *Config) *Overlay {
	o := &Overlay{
		solver:          solver,
		sources:         make(map[sig][]Source),
		transfers:       make(map[sig][]Transfer),
		sinks:           make(map[sig][]Sink),
		objects:         make(map[taintKey]*ir.Obj),
		provenance:      make(map[*ir.Obj]*ir.CallSite),
		transfersByFrom: make(map[cs.CSVar][]transferReg),
	}
	for _, s := range cfg.Sources {
		k := sigOf(s.Declaring, s.Sub)
		o.sources[k] = append(o.sources[k], s)
	}
	for _, t := range cfg.Transfers {
		k := sigOf(t.Declaring, t.Sub)
		o.transfers[k] = append(o.transfers[k], t)
	}
	for _, sk := range cfg.Sinks {
		k := sigOf(sk.Declaring, sk.Sub)
		o.sinks[k] = append(o.sinks[k], sk)
	}
	return o
}

// mint returns the canonical taint object for (call, typ), creating it on
// first use so repeated matches of the same source/transfer collapse onto
// one object rule).
func (o *Overlay) mint(source *ir.CallSite, typ TypeTag) *ir.Obj {
	k := taintKey{source, typ}
	if obj, ok := o.objects[k]; ok {
		return obj
	}
	obj := ir.NewObj(nil, ir.Reference, nil, -(o.nextObjID + 1))
	o.nextObjID++
	o.objects[k] = obj
	o.provenance[obj] = source
	return obj
}

// OnResolvedCall implements cs.Hook: it is invoked once per resolved call
// edge, caller-context qualified, which is exactly the granularity source/
// transfer/sink rules are matched at.
func (o *Overlay) OnResolvedCall(caller cs.CSMethod, call *ir.CallSite, callee cs.CSMethod, lhs *ir.Var) {
	k := sigOf(call.Declaring, call.Sub)

	for _, src := range o.sources[k] {
		if lhs == nil {
			continue
		}
		obj := o.mint(call, src.ResultType)
		cobj := o.solver.HeapObj(caller.Ctx, obj)
		o.solver.AddVarPoints(caller.Ctx, lhs, cobj)
	}

	for _, tr := range o.transfers[k] {
		fromVar, ok := tr.From.resolve(call, lhs)
		if !ok {
			continue
		}
		toVar, ok := tr.To.resolve(call, lhs)
		if !ok {
			continue
		}
		fromKey := cs.CSVar{Ctx: caller.Ctx, V: fromVar}
		toKey := cs.CSVar{Ctx: caller.Ctx, V: toVar}
		o.transfersByFrom[fromKey] = append(o.transfersByFrom[fromKey], transferReg{to: toKey, outputType: tr.OutputType})
		o.propagateTaintFrom(fromKey, o.solver.PointsToSetByVar(fromKey))
	}

	for _, sk := range o.sinks[k] {
		argVar, ok := ArgPos(sk.ArgIndex).resolve(call, lhs)
		if !ok {
			continue
		}
		o.recordedSinks = append(o.recordedSinks, sinkRecord{call: call, argv: cs.CSVar{Ctx: caller.Ctx, V: argVar}})
	}
}

// OnVarGrowth implements cs.Hook: whenever a variable's points-to set
// grows, re-check every transfer rule registered against it, so taint
// discovered after the call already resolved is still carried across
//.
func (o *Overlay) OnVarGrowth(v cs.CSVar, grown map[cs.CSObj]struct{}) {
	o.propagateTaintFrom(v, grown)
}

func (o *Overlay) propagateTaintFrom(from cs.CSVar, objs map[cs.CSObj]struct{}) {
	regs := o.transfersByFrom[from]
	if len(regs) == 0 {
		return
	}
	for cobj := range objs {
		source, tainted := o.provenance[cobj.Obj]
		if !tainted {
			continue
		}
		for _, reg := range regs {
			retagged := o.mint(source, reg.outputType)
			o.solver.AddVarPoints(reg.to.Ctx, reg.to.V, o.solver.HeapObj(reg.to.Ctx, retagged))
		}
	}
}

// Flows scans every recorded sink's current points-to set for taint
// objects and returns the confirmed flows, sorted for reproducibility
//. Call after
// the driving cs.Solver's Solve has returned.
func (o *Overlay) Flows() []TaintFlow {
	seen := make(map[TaintFlow]struct{})
	var flows []TaintFlow
	for _, rec := range o.recordedSinks {
		for cobj := range o.solver.PointsToSetByVar(rec.argv) {
			source, ok := o.provenance[cobj.Obj]
			if !ok {
				continue
			}
			f := TaintFlow{Source: source, Sink: rec.call, SinkArgIndex: indexOfSink(o, rec.call)}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			flows = append(flows, f)
		}
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].Source.Index != flows[j].Source.Index {
			return flows[i].Source.Index < flows[j].Source.Index
		}
		if flows[i].Sink.Index != flows[j].Sink.Index {
			return flows[i].Sink.Index < flows[j].Sink.Index
		}
		return flows[i].SinkArgIndex < flows[j].SinkArgIndex
	})
	return flows
}

// indexOfSink recovers the configured ArgIndex for a recorded sink call,
// since sinkRecord only keeps the resolved variable.
func indexOfSink(o *Overlay, call *ir.CallSite) int {
	k := sigOf(call.Declaring, call.Sub)
	for _, sk := range o.sinks[k] {
		return sk.ArgIndex
	}
	return -1
}
