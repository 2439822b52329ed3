package context

import "github.com/latticeflow/latticeflow/ir"

// objString is an object-sensitive context: the last k receiver object ids
// along the allocation/call chain, encoded the same comparable-string way
// as callString.
type objString string

func (o objString) Equal(other ir.Context) bool {
	v, ok := other.(objString)
	return ok && o == v
}

func (o objString) String() string {
	if o == "" {
		return "[]"
	}
	return "[" + string(o) + "]"
}

func (o objString) push(k int, id int) objString {
	if k <= 0 {
		return ""
	}
	ids := splitIDs(string(o))
	ids = append(ids, id)
	if len(ids) > k {
		ids = ids[len(ids)-k:]
	}
	return objString(joinIDs(ids))
}

// ObjectSensitive is the k-object-sensitive context selector: a virtual
// call's context is the last k receiver object ids seen so far. Static
// calls have no receiver to add and inherit the caller's context
// unchanged. Heap contexts are the allocating method's own context,
// unchanged (1-object-sensitivity over the *allocation site*, with the
// receiver chain carried by whichever call reaches that site).
type ObjectSensitive struct {
	K int
}

var _ ir.ContextSelector = ObjectSensitive{}

func (s ObjectSensitive) EmptyContext() ir.Context { return objString("") }

func (s ObjectSensitive) SelectContextForStatic(caller ir.Context, call *ir.CallSite, callee *ir.JMethod) ir.Context {
	if _, ok := caller.(objString); ok {
		return caller
	}
	return objString("")
}

func (s ObjectSensitive) SelectContextForVirtual(caller ir.Context, call *ir.CallSite, recv *ir.Obj, callee *ir.JMethod) ir.Context {
	cur, ok := caller.(objString)
	if !ok {
		cur = ""
	}
	if recv == nil {
		return cur
	}
	return cur.push(s.K, recv.ID())
}

func (s ObjectSensitive) SelectHeapContext(container ir.Context, obj *ir.Obj) ir.Context {
	return container
}
