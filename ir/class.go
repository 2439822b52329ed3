package ir

// JClass is an opaque handle to a declared class or interface. Identity is
// by pointer; the core never inspects a JClass beyond passing it to
// ClassHierarchy and JMethod.
type JClass struct {
	Name        string
	IsInterface bool
}

// Subsignature identifies a method independent of its declaring class
// (name + parameter types + return type), used for virtual/interface
// dispatch
type Subsignature string

// JMethod is a method declared on a class, with its own body (an IR) when
// concrete, or nil when abstract/external.
type JMethod struct {
	Name      string
	Declaring *JClass
	Sub       Subsignature
	Static    bool
	Abstract  bool
	body      *Method
}

// Body returns the method's intermediate representation, or nil if the
// method has no concrete body (abstract, interface, or external).
func (m *JMethod) Body() *Method { return m.body }

// SetBody attaches a concrete method body. Used by IR builders.
func (m *JMethod) SetBody(body *Method) { m.body = body }

func (m *JMethod) String() string {
	if m == nil {
		return "<nil method>"
	}
	decl := "?"
	if m.Declaring != nil {
		decl = m.Declaring.Name
	}
	return decl + "." + m.Name
}

// ClassHierarchy is the external collaborator that answers subtype and
// member-resolution queries. Supplied by the surrounding system; the core
// only ever reads from it.
type ClassHierarchy interface {
	GetDirectSubclassesOf(c *JClass) []*JClass
	GetDirectSubinterfacesOf(c *JClass) []*JClass
	GetDirectImplementorsOf(c *JClass) []*JClass
	GetDeclaredMethod(c *JClass, sub Subsignature) *JMethod
	GetSuperClass(c *JClass) *JClass
}
