// Package classhierarchy provides an in-memory ir.ClassHierarchy built
// from an explicit list of classes, interfaces, super-edges and
// implements-edges, standing in for whatever front end would normally
// populate this from bytecode or source.
package classhierarchy

import "github.com/latticeflow/latticeflow/ir"

// Hierarchy is a concrete ir.ClassHierarchy over a fixed, fully-registered
// set of classes. Registration happens once at construction; all of its
// methods are read-only afterward, matching the core's expectation that
// the hierarchy is supplied, not mutated mid-analysis.
type Hierarchy struct {
	super       map[*ir.JClass]*ir.JClass
	directSubs  map[*ir.JClass][]*ir.JClass
	ifaceSupers map[*ir.JClass][]*ir.JClass
	directSubIf map[*ir.JClass][]*ir.JClass
	implements  map[*ir.JClass][]*ir.JClass
	implementedBy map[*ir.JClass][]*ir.JClass
	methods     map[*ir.JClass]map[ir.Subsignature]*ir.JMethod
}

var _ ir.ClassHierarchy = (*Hierarchy)(nil)

// New returns an empty hierarchy ready for registration via SetSuperClass,
// AddSuperInterface, AddImplements and AddMethod.
func New() *Hierarchy {
	return &Hierarchy{
		super:         make(map[*ir.JClass]*ir.JClass),
		directSubs:    make(map[*ir.JClass][]*ir.JClass),
		ifaceSupers:   make(map[*ir.JClass][]*ir.JClass),
		directSubIf:   make(map[*ir.JClass][]*ir.JClass),
		implements:    make(map[*ir.JClass][]*ir.JClass),
		implementedBy: make(map[*ir.JClass][]*ir.JClass),
		methods:       make(map[*ir.JClass]map[ir.Subsignature]*ir.JMethod),
	}
}

// SetSuperClass records that c directly extends super (classes only; an
// interface's "super" edges are modeled with AddSuperInterface instead).
func (h *Hierarchy) SetSuperClass(c, super *ir.JClass) {
	h.super[c] = super
	h.directSubs[super] = append(h.directSubs[super], c)
}

// AddSuperInterface records that the interface c directly extends super.
func (h *Hierarchy) AddSuperInterface(c, super *ir.JClass) {
	h.ifaceSupers[c] = append(h.ifaceSupers[c], super)
	h.directSubIf[super] = append(h.directSubIf[super], c)
}

// AddImplements records that the class c directly implements iface.
func (h *Hierarchy) AddImplements(c, iface *ir.JClass) {
	h.implements[c] = append(h.implements[c], iface)
	h.implementedBy[iface] = append(h.implementedBy[iface], c)
}

// AddMethod registers a declared method on its declaring class, so later
// GetDeclaredMethod calls can find it.
func (h *Hierarchy) AddMethod(m *ir.JMethod) {
	if h.methods[m.Declaring] == nil {
		h.methods[m.Declaring] = make(map[ir.Subsignature]*ir.JMethod)
	}
	h.methods[m.Declaring][m.Sub] = m
}

func (h *Hierarchy) GetDirectSubclassesOf(c *ir.JClass) []*ir.JClass {
	return h.directSubs[c]
}

func (h *Hierarchy) GetDirectSubinterfacesOf(c *ir.JClass) []*ir.JClass {
	return h.directSubIf[c]
}

func (h *Hierarchy) GetDirectImplementorsOf(c *ir.JClass) []*ir.JClass {
	return h.implementedBy[c]
}

func (h *Hierarchy) GetDeclaredMethod(c *ir.JClass, sub ir.Subsignature) *ir.JMethod {
	return h.methods[c][sub]
}

func (h *Hierarchy) GetSuperClass(c *ir.JClass) *ir.JClass {
	return h.super[c]
}
