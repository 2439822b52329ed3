// Package heapmodel provides a concrete ir.HeapModel: one abstract object
// per allocation site, assigned an id in first-seen order for
// deterministic output. It mirrors classhierarchy's role as a concrete
// collaborator the core only reads from.
package heapmodel

import "github.com/latticeflow/latticeflow/ir"

// Model is context-insensitive: every call to GetObj for the same NewStmt
// returns the same *ir.Obj, regardless of calling context. The
// context-sensitive heap abstraction (per-context object cloning) is
// layered on top by pta/cs via ir.ContextSelector.SelectHeapContext, not
// by this type.
type Model struct {
	objs map[*ir.NewStmt]*ir.Obj
	next int
}

var _ ir.HeapModel = (*Model)(nil)

// New returns an empty heap model.
func New() *Model {
	return &Model{objs: make(map[*ir.NewStmt]*ir.Obj)}
}

func (m *Model) GetObj(newStmt *ir.NewStmt) *ir.Obj {
	if o, ok := m.objs[newStmt]; ok {
		return o
	}
	o := ir.NewObj(newStmt, newStmt.Expr.Type, newStmt.Expr.Class, m.next)
	m.next++
	m.objs[newStmt] = o
	return o
}
