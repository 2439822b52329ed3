// Package lattice implements the fact semilattices shared by the
// intraprocedural and interprocedural constant-propagation analyses: the
// three-point Value lattice, the CPFact map built over it, and a generic
// SetFact used by live-variable analysis.
package lattice

import "strconv"

// Kind distinguishes the three points of the constant-propagation lattice.
type Kind int

const (
	// UndefKind is bottom: "no information yet."
	UndefKind Kind = iota
	// ConstKind holds a known 32-bit signed constant.
	ConstKind
	// NACKind is top: "not a constant."
	NACKind
)

// Value is one element of the per-variable constant lattice:
// UNDEF ⊑ CONST(k) ⊑ NAC. The zero Value is UNDEF.
type Value struct {
	kind  Kind
	value int32
}

// Undef returns the bottom element.
func Undef() Value { return Value{kind: UndefKind} }

// NAC returns the top element.
func NAC() Value { return Value{kind: NACKind} }

// Const returns the constant element holding k.
func Const(k int32) Value { return Value{kind: ConstKind, value: k} }

func (v Value) IsUndef() bool { return v.kind == UndefKind }
func (v Value) IsNAC() bool   { return v.kind == NACKind }
func (v Value) IsConst() bool { return v.kind == ConstKind }

// ConstValue returns the held constant. Only meaningful when IsConst().
func (v Value) ConstValue() int32 { return v.value }

// Equal reports structural equality. A Value is never compared
// to "null" — the absent-key convention in CPFact is what denotes UNDEF,
// not a nil Value — so this is the only equality callers should use.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	return v.kind != ConstKind || v.value == o.value
}

// Meet computes the greatest lower bound of two Values:
// CONST(k1) ⊓ CONST(k2) = CONST(k1) if k1==k2 else NAC; NAC dominates;
// UNDEF is the identity.
func Meet(a, b Value) Value {
	if a.kind == UndefKind {
		return b
	}
	if b.kind == UndefKind {
		return a
	}
	if a.kind == NACKind || b.kind == NACKind {
		return NAC()
	}
	// both CONST
	if a.value == b.value {
		return a
	}
	return NAC()
}

func (v Value) String() string {
	switch v.kind {
	case UndefKind:
		return "UNDEF"
	case NACKind:
		return "NAC"
	default:
		return "CONST(" + strconv.FormatInt(int64(v.value), 10) + ")"
	}
}
