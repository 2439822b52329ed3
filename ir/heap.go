package ir

import "strconv"

// Obj is an abstract heap object: the canonical summary of all concrete
// objects allocated at one NewStmt. Identity is by pointer.
// Class carries the object's declared type for virtual dispatch against
// its dynamic type; it is nil for objects that
// do not represent class instances (e.g. bare arrays).
type Obj struct {
	Alloc *NewStmt
	Type  Type
	Class *JClass
	id    int // stable, for deterministic ordering/printing
}

// NewObj constructs an abstract object for an allocation site. id should be
// assigned by the HeapModel in allocation order, for deterministic output.
func NewObj(alloc *NewStmt, typ Type, class *JClass, id int) *Obj {
	return &Obj{Alloc: alloc, Type: typ, Class: class, id: id}
}

func (o *Obj) ID() int { return o.id }
func (o *Obj) String() string {
	if o.Alloc != nil {
		return "new@" + strconv.Itoa(o.Alloc.Index())
	}
	return "obj"
}

// HeapModel maps allocation sites to canonical abstract objects.
// Construction of the heap abstraction itself — context-sensitive or
// context-insensitive object naming — is an external policy; the core only
// ever calls GetObj.
type HeapModel interface {
	GetObj(newStmt *NewStmt) *Obj
}
