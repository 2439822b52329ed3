// Package context supplies ir.ContextSelector policies for the
// context-sensitive pointer solver: empty (context
// insensitivity expressed through the CS machinery), k-CFA (call-string),
// and object-sensitivity. Every concrete Context here is a comparable
// value type (never a pointer to a slice), so two contexts built
// independently but holding the same content compare equal through plain
// Go interface equality — required since pta/cs keys its tables on
// (Context, Pointer) pairs.
package context

import "github.com/latticeflow/latticeflow/ir"

// emptyContext is the sole value the empty policy ever produces.
type emptyContext struct{}

func (emptyContext) Equal(other ir.Context) bool {
	_, ok := other.(emptyContext)
	return ok
}

func (emptyContext) String() string { return "<>" }

// Empty is the context selector that always returns the single empty
// context — running the context-sensitive solver under this policy
// degenerates to context-insensitive analysis.
type Empty struct{}

var _ ir.ContextSelector = Empty{}

func (Empty) EmptyContext() ir.Context { return emptyContext{} }

func (Empty) SelectContextForStatic(caller ir.Context, call *ir.CallSite, callee *ir.JMethod) ir.Context {
	return emptyContext{}
}

func (Empty) SelectContextForVirtual(caller ir.Context, call *ir.CallSite, recv *ir.Obj, callee *ir.JMethod) ir.Context {
	return emptyContext{}
}

func (Empty) SelectHeapContext(container ir.Context, obj *ir.Obj) ir.Context {
	return emptyContext{}
}
