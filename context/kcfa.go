package context

import (
	"strconv"
	"strings"

	"github.com/latticeflow/latticeflow/ir"
)

// callString is a k-CFA context: the last k callsite indices on the
// call stack, most recent last, encoded as a comma-joined string so it is
// a plain comparable value usable directly as a map key.
type callString string

func (c callString) Equal(other ir.Context) bool {
	o, ok := other.(callString)
	return ok && c == o
}

func (c callString) String() string {
	if c == "" {
		return "[]"
	}
	return "[" + string(c) + "]"
}

func (c callString) push(k int, callIndex int) callString {
	if k <= 0 {
		return ""
	}
	ids := splitIDs(string(c))
	ids = append(ids, callIndex)
	if len(ids) > k {
		ids = ids[len(ids)-k:]
	}
	return callString(joinIDs(ids))
}

func splitIDs(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		n, _ := strconv.Atoi(p)
		ids = append(ids, n)
	}
	return ids
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// KCFA is the call-string-sensitive context selector: a call's context is
// the last K callsites on the call stack, regardless of receiver. Heap
// contexts mirror the allocating method's own call-string context
// unchanged, the common simplification of k-CFA (as opposed to k-object
// sensitivity, which is ObjectSensitive below).
type KCFA struct {
	K int
}

var _ ir.ContextSelector = KCFA{}

func (s KCFA) EmptyContext() ir.Context { return callString("") }

func (s KCFA) SelectContextForStatic(caller ir.Context, call *ir.CallSite, callee *ir.JMethod) ir.Context {
	return s.push(caller, call)
}

func (s KCFA) SelectContextForVirtual(caller ir.Context, call *ir.CallSite, recv *ir.Obj, callee *ir.JMethod) ir.Context {
	return s.push(caller, call)
}

func (s KCFA) SelectHeapContext(container ir.Context, obj *ir.Obj) ir.Context {
	return container
}

func (s KCFA) push(caller ir.Context, call *ir.CallSite) ir.Context {
	cs, ok := caller.(callString)
	if !ok {
		cs = ""
	}
	return cs.push(s.K, call.Index)
}
