// Package ir defines the contracts the solver fabric consumes: typed local
// variables, a closed statement sum type, method bodies, control-flow
// graphs, and the class-hierarchy / heap-model / context-selector
// collaborators that live outside the core analyses. Construction of these
// values from source or bytecode is out of scope; this package only fixes
// the shapes the rest of the module programs against.
package ir

// Type is one of the IR's primitive type tags. Only the int-holding subset
// participates in constant propagation; Reference is the only type that
// carries points-to information.
type Type int

const (
	Byte Type = iota
	Short
	Int
	Char
	Boolean
	Long
	Float
	Double
	Reference
)

func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Char:
		return "char"
	case Boolean:
		return "boolean"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// IsIntHolding reports whether values of this type are tracked by constant
// propagation. That is byte/short/int/char/boolean only — long,
// float, double and reference are excluded (reference equality and
// floating-point precision are explicit non-goals).
func (t Type) IsIntHolding() bool {
	switch t {
	case Byte, Short, Int, Char, Boolean:
		return true
	default:
		return false
	}
}
