// Package cha builds a call graph by Class Hierarchy Analysis: a worklist over reachable methods, resolving each invocation
// against static dispatch, super-chain dispatch, or a subtype-closure
// union, consulting no points-to information at all.
package cha

import (
	"github.com/latticeflow/latticeflow/callgraph"
	"github.com/latticeflow/latticeflow/internal/worklist"
	"github.com/latticeflow/latticeflow/ir"
)

// Build runs CHA starting from entry and returns the resulting call
// graph. hierarchy answers the subtype and member-resolution queries the
// algorithm needs.
func Build(entry *ir.JMethod, hierarchy ir.ClassHierarchy) *callgraph.Graph {
	g := callgraph.New()
	wl := worklist.New[*ir.JMethod]()

	g.MarkReachable(entry)
	wl.Push(entry)

	for {
		m, ok := wl.Pop()
		if !ok {
			break
		}
		body := m.Body()
		if body == nil {
			continue // abstract, interface, or external method: no IR to scan
		}
		for _, stmt := range body.GetStmts() {
			call := callSiteOf(stmt)
			if call == nil {
				continue
			}
			for _, target := range resolve(call, hierarchy) {
				g.AddEdge(call, m, target)
				if g.MarkReachable(target) {
					wl.Push(target)
				}
			}
		}
	}

	return g
}

// callSiteOf extracts the CallSite a statement carries, whether it is a
// discarded-result InvokeStmt or an Assign whose RHS is an InvokeExpr.
func callSiteOf(stmt ir.Stmt) *ir.CallSite {
	switch s := stmt.(type) {
	case *ir.InvokeStmt:
		return s.Call
	case *ir.AssignStmt:
		if ie, ok := s.RHS.(*ir.InvokeExpr); ok {
			return ie.Call
		}
	}
	return nil
}

// resolve computes the target-method set for one callsite.
func resolve(call *ir.CallSite, h ir.ClassHierarchy) []*ir.JMethod {
	switch call.Kind {
	case ir.STATIC:
		if m := h.GetDeclaredMethod(call.Declaring, call.Sub); m != nil {
			return []*ir.JMethod{m}
		}
		return nil
	case ir.SPECIAL:
		if m := dispatch(call.Declaring, call.Sub, h); m != nil {
			return []*ir.JMethod{m}
		}
		return nil
	case ir.VIRTUAL, ir.INTERFACE:
		seen := make(map[*ir.JMethod]struct{})
		var targets []*ir.JMethod
		for _, c := range subtypeClosure(call.Declaring, h) {
			m := dispatch(c, call.Sub, h)
			if m == nil {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			targets = append(targets, m)
		}
		return targets
	default:
		return nil
	}
}

// dispatch walks from c up through its superclasses looking for a
// concrete declaration of sub SPECIAL/VIRTUAL rule.
func dispatch(c *ir.JClass, sub ir.Subsignature, h ir.ClassHierarchy) *ir.JMethod {
	for cur := c; cur != nil; cur = h.GetSuperClass(cur) {
		if m := h.GetDeclaredMethod(cur, sub); m != nil && !m.Abstract {
			return m
		}
	}
	return nil
}

// subtypeClosure computes the smallest class/interface set containing c,
// closed under direct sub-interfaces, direct implementors, and direct
// sub-classes.
func subtypeClosure(c *ir.JClass, h ir.ClassHierarchy) []*ir.JClass {
	seen := map[*ir.JClass]struct{}{c: {}}
	closure := []*ir.JClass{c}
	for i := 0; i < len(closure); i++ {
		cur := closure[i]
		next := append(append([]*ir.JClass{}, h.GetDirectSubinterfacesOf(cur)...), h.GetDirectImplementorsOf(cur)...)
		next = append(next, h.GetDirectSubclassesOf(cur)...)
		for _, n := range next {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			closure = append(closure, n)
		}
	}
	return closure
}
