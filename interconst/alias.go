// Package interconst implements the interprocedural solver and inter
// constant propagation: an alias map frozen from
// pointer-analysis results, then a worklist fixpoint over the ICFG whose
// edge transfers are alias-aware for field/array loads and stores.
package interconst

import "github.com/latticeflow/latticeflow/ir"

// PointsToProvider is the subset of a pointer-analysis solver's query
// surface the alias map needs.
type PointsToProvider interface {
	PointsToSet(v *ir.Var) map[*ir.Obj]struct{}
}

// AliasMap holds `aliasMap[base] = {v : pts(v) ∩ pts(base) ≠ ∅}`, plus the
// store/load tables instance- and array-load transfers need to find
// candidate definitions. It is computed once and frozen before inter
// constant propagation begins: later passes only ever read it.
type AliasMap struct {
	aliases map[*ir.Var]map[*ir.Var]struct{}

	staticStores map[*ir.Field][]*ir.StoreFieldStmt
	staticLoads  map[*ir.Field][]*ir.LoadFieldStmt

	instanceStoresByBase map[*ir.Var][]*ir.StoreFieldStmt
	instanceLoadsByBase  map[*ir.Var][]*ir.LoadFieldStmt

	arrayStoresByBase map[*ir.Var][]*ir.StoreArrayStmt
	arrayLoadsByBase  map[*ir.Var][]*ir.LoadArrayStmt
}

// Aliases returns the set of variables whose points-to set intersects
// base's, including base itself.
func (m *AliasMap) Aliases(base *ir.Var) map[*ir.Var]struct{} { return m.aliases[base] }

func (m *AliasMap) StaticStores(f *ir.Field) []*ir.StoreFieldStmt { return m.staticStores[f] }
func (m *AliasMap) StaticLoads(f *ir.Field) []*ir.LoadFieldStmt   { return m.staticLoads[f] }

// InstanceStoresThrough returns every store statement `v.f = y` for v in
// base's alias set, restricted to field.
func (m *AliasMap) InstanceStoresThrough(base *ir.Var, field *ir.Field) []*ir.StoreFieldStmt {
	var out []*ir.StoreFieldStmt
	for v := range m.aliases[base] {
		for _, st := range m.instanceStoresByBase[v] {
			ref := st.LHS.(*ir.InstanceFieldRef)
			if ref.Field == field {
				out = append(out, st)
			}
		}
	}
	return out
}

// InstanceLoadsDependentOn returns every load statement `x = v.f` for v in
// base's alias set, restricted to field — the loads a store through base
// must re-enqueue on change.
func (m *AliasMap) InstanceLoadsDependentOn(base *ir.Var, field *ir.Field) []*ir.LoadFieldStmt {
	var out []*ir.LoadFieldStmt
	for v := range m.aliases[base] {
		for _, ld := range m.instanceLoadsByBase[v] {
			ref := ld.RHS.(*ir.InstanceFieldRef)
			if ref.Field == field {
				out = append(out, ld)
			}
		}
	}
	return out
}

// ArrayStoresThrough returns every store statement `v[i] = y` for v in
// base's alias set.
func (m *AliasMap) ArrayStoresThrough(base *ir.Var) []*ir.StoreArrayStmt {
	var out []*ir.StoreArrayStmt
	for v := range m.aliases[base] {
		out = append(out, m.arrayStoresByBase[v]...)
	}
	return out
}

// ArrayLoadsDependentOn returns every load statement `x = v[i]` for v in
// base's alias set.
func (m *AliasMap) ArrayLoadsDependentOn(base *ir.Var) []*ir.LoadArrayStmt {
	var out []*ir.LoadArrayStmt
	for v := range m.aliases[base] {
		out = append(out, m.arrayLoadsByBase[v]...)
	}
	return out
}

// refVars collects every distinct reference-typed variable mentioned as a
// def or use across nodes, the universe the alias map is computed over.
func refVars(nodes []ir.Stmt) []*ir.Var {
	seen := make(map[*ir.Var]struct{})
	var out []*ir.Var
	add := func(v *ir.Var) {
		if v == nil || v.Type() != ir.Reference {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	addLValue := func(lv ir.LValue) {
		switch l := lv.(type) {
		case *ir.Var:
			add(l)
		case *ir.InstanceFieldRef:
			add(l.Base)
		case *ir.ArrayAccess:
			add(l.Base)
		}
	}
	addRValue := func(rv ir.RValue) {
		switch r := rv.(type) {
		case *ir.Var:
			add(r)
		case *ir.InstanceFieldRef:
			add(r.Base)
		case *ir.ArrayAccess:
			add(r.Base)
		}
	}
	for _, n := range nodes {
		if lv, ok := n.GetDef(); ok {
			addLValue(lv)
		}
		for _, u := range n.GetUses() {
			addRValue(u)
		}
	}
	return out
}

// Build computes the frozen alias map and store/load tables from nodes
// (every ICFG node in the program) and pts (a pointer-analysis solver
// whose Solve has already returned).
func Build(nodes []ir.Stmt, pts PointsToProvider) *AliasMap {
	m := &AliasMap{
		aliases:              make(map[*ir.Var]map[*ir.Var]struct{}),
		staticStores:         make(map[*ir.Field][]*ir.StoreFieldStmt),
		staticLoads:          make(map[*ir.Field][]*ir.LoadFieldStmt),
		instanceStoresByBase: make(map[*ir.Var][]*ir.StoreFieldStmt),
		instanceLoadsByBase:  make(map[*ir.Var][]*ir.LoadFieldStmt),
		arrayStoresByBase:    make(map[*ir.Var][]*ir.StoreArrayStmt),
		arrayLoadsByBase:     make(map[*ir.Var][]*ir.LoadArrayStmt),
	}

	vars := refVars(nodes)
	objToVars := make(map[*ir.Obj][]*ir.Var)
	ptsByVar := make(map[*ir.Var]map[*ir.Obj]struct{}, len(vars))
	for _, v := range vars {
		p := pts.PointsToSet(v)
		ptsByVar[v] = p
		for o := range p {
			objToVars[o] = append(objToVars[o], v)
		}
	}
	for _, v := range vars {
		set := make(map[*ir.Var]struct{})
		set[v] = struct{}{}
		for o := range ptsByVar[v] {
			for _, w := range objToVars[o] {
				set[w] = struct{}{}
			}
		}
		m.aliases[v] = set
	}

	for _, n := range nodes {
		switch st := n.(type) {
		case *ir.StoreFieldStmt:
			switch ref := st.LHS.(type) {
			case *ir.StaticFieldRef:
				m.staticStores[ref.Field] = append(m.staticStores[ref.Field], st)
			case *ir.InstanceFieldRef:
				m.instanceStoresByBase[ref.Base] = append(m.instanceStoresByBase[ref.Base], st)
			}
		case *ir.LoadFieldStmt:
			switch ref := st.RHS.(type) {
			case *ir.StaticFieldRef:
				m.staticLoads[ref.Field] = append(m.staticLoads[ref.Field], st)
			case *ir.InstanceFieldRef:
				m.instanceLoadsByBase[ref.Base] = append(m.instanceLoadsByBase[ref.Base], st)
			}
		case *ir.StoreArrayStmt:
			m.arrayStoresByBase[st.LHS.Base] = append(m.arrayStoresByBase[st.LHS.Base], st)
		case *ir.LoadArrayStmt:
			m.arrayLoadsByBase[st.RHS.Base] = append(m.arrayLoadsByBase[st.RHS.Base], st)
		}
	}

	return m
}
